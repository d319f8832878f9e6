package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/espfs/webnav/pkg/router"
)

// notFoundLabel is the route label for transitions that matched nothing.
const notFoundLabel = "none"

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "webnav").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for transition duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "webnav",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors for one registry.
type Metrics struct {
	transitionsTotal   *prometheus.CounterVec
	transitionErrors   *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	notFoundTotal      prometheus.Counter
	bridgeSessions     prometheus.Gauge
}

// NewMetrics creates and registers the webnav collectors. It panics if the
// collectors are already registered with the configured registry, so call it
// once per registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transitions_total",
			Help:        "Total number of route transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"cause", "route"}),

		transitionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_errors_total",
			Help:        "Total number of failed route transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"cause"}),

		transitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transition_duration_seconds",
			Help:        "Route transition duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"cause"}),

		notFoundTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "not_found_total",
			Help:        "Total number of transitions that matched no route",
			ConstLabels: config.ConstLabels,
		}),

		bridgeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bridge_sessions",
			Help:        "Number of open history bridge connections",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Middleware returns a router.Middleware recording into m.
func (m *Metrics) Middleware() router.Middleware {
	return router.MiddlewareFunc(func(t *router.Transition, next func() error) error {
		cause := t.Cause.String()
		start := time.Now()

		err := next()

		m.transitionDuration.WithLabelValues(cause).Observe(time.Since(start).Seconds())
		if err != nil {
			m.transitionErrors.WithLabelValues(cause).Inc()
			return err
		}

		if !t.Resolved() {
			return nil
		}
		route := notFoundLabel
		if t.To.Found() {
			route = t.To.Matched.Path
		} else {
			m.notFoundTotal.Inc()
		}
		m.transitionsTotal.WithLabelValues(cause, route).Inc()
		return nil
	})
}

// BridgeOpened records a new history bridge connection.
func (m *Metrics) BridgeOpened() {
	m.bridgeSessions.Inc()
}

// BridgeClosed records a history bridge connection going away.
func (m *Metrics) BridgeClosed() {
	m.bridgeSessions.Dec()
}
