// Package middleware provides observability middleware for webnav routers.
//
// This package includes:
//   - Prometheus metrics for route transitions and bridge sessions
//   - OpenTelemetry tracing with one span per transition
//
// Both are router.Middleware values and observe transitions without
// changing them:
//
//	m := middleware.NewMetrics()
//	r, err := router.New(reg, hist,
//	    router.WithMiddleware(
//	        middleware.OpenTelemetry(),
//	        m.Middleware(),
//	    ),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - webnav_transitions_total: transitions by cause and route pattern
//   - webnav_not_found_total: transitions that matched no route
//   - webnav_transition_errors_total: transitions that failed, by cause
//   - webnav_transition_duration_seconds: transition duration histogram
//   - webnav_bridge_sessions: open history bridge connections
//
// NewMetrics registers with the default registry unless WithRegistry is
// given. Collectors register once per registry, so create one Metrics and
// share its Middleware across routers:
//
//	reg := prometheus.NewRegistry()
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Context Propagation
//
// The tracing middleware replaces Transition.Context with the span context
// before calling next, so later middleware and navigation code inherit it:
//
//	router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
//	    span := trace.SpanFromContext(t.Context)
//	    span.AddEvent("before")
//	    return next()
//	})
package middleware
