package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/espfs/webnav/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "webnav"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "webnav").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeQuery records the query string in the path attribute.
	// Query strings may carry user data, so it is disabled by default.
	IncludeQuery bool

	// Filter determines which transitions to trace.
	// If nil, all transitions are traced.
	Filter func(t *router.Transition) bool

	// AttributeExtractor adds custom attributes once the transition
	// has been applied.
	AttributeExtractor func(t *router.Transition) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeQuery enables recording the query string.
func WithIncludeQuery(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeQuery = include
	}
}

// WithTransitionFilter sets a filter function for transitions.
func WithTransitionFilter(filter func(t *router.Transition) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(t *router.Transition) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// OpenTelemetry creates middleware that traces every route transition.
//
// The middleware:
//   - Starts a span from Transition.Context named after the cause
//   - Replaces Transition.Context with the span context for the rest of the chain
//   - Records the resolved route and whether it was found
//   - Records errors and sets span status
//
// Without WithTracerProvider the global provider is used. Configure it in
// main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
		if config.Filter != nil && !config.Filter(t) {
			return next()
		}

		parent := t.Context
		if parent == nil {
			parent = context.Background()
		}

		spanCtx, span := tracer.Start(parent, formatSpanName(t),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("webnav.cause", t.Cause.String()),
				attribute.String("webnav.target", targetAttr(t.Target, config.IncludeQuery)),
				attribute.String("webnav.from", t.From.Path),
			),
		)
		defer span.End()

		t.Context = spanCtx
		err := next()
		t.Context = parent

		if t.Resolved() {
			path := t.To.Path
			if config.IncludeQuery {
				path = t.To.FullPath
			}
			span.SetAttributes(
				attribute.String("webnav.path", path),
				attribute.Bool("webnav.found", t.To.Found()),
			)
			if t.To.Found() {
				span.SetAttributes(
					attribute.String("webnav.route", t.To.Matched.Path),
					attribute.String("webnav.route_name", t.To.Name()),
					attribute.String("webnav.view", string(t.To.View())),
				)
			}
		}
		if config.AttributeExtractor != nil {
			span.SetAttributes(config.AttributeExtractor(t)...)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		return err
	})
}

func formatSpanName(t *router.Transition) string {
	return fmt.Sprintf("webnav.%s", t.Cause.String())
}

func targetAttr(target string, includeQuery bool) string {
	if includeQuery {
		return target
	}
	path, _, _ := strings.Cut(target, "?")
	return path
}
