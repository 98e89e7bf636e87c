// Package metrics exports state propagation metrics to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/odvcencio/livestate/state"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "livestate").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for propagation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "livestate",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer records state events as Prometheus metrics.
//
// Metrics collected:
//   - livestate_updates_total: accepted value changes by state kind
//   - livestate_suppressed_updates_total: updates dropped by the equality gate
//   - livestate_rejected_updates_total: updates attempted on derived states
//   - livestate_teardowns_total: teardowns by state kind
//   - livestate_lifecycles_attached: lifecycles currently registered
//   - livestate_propagation_duration_seconds: time spent notifying dependents
type Observer struct {
	updates     *prometheus.CounterVec
	suppressed  *prometheus.CounterVec
	rejected    prometheus.Counter
	teardowns   *prometheus.CounterVec
	lifecycles  prometheus.Gauge
	propagation *prometheus.HistogramVec

	mu      sync.Mutex
	started []time.Time
}

// New registers the metrics and returns an observer that updates them.
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Observer{
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of accepted state value changes",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		suppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "suppressed_updates_total",
			Help:        "Total number of updates suppressed because the value was unchanged",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rejected_updates_total",
			Help:        "Total number of updates attempted on derived states",
			ConstLabels: config.ConstLabels,
		}),

		teardowns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "teardowns_total",
			Help:        "Total number of state teardowns",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		lifecycles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lifecycles_attached",
			Help:        "Number of lifecycles currently attached across observed states",
			ConstLabels: config.ConstLabels,
		}),

		propagation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagation_duration_seconds",
			Help:        "Time spent notifying lifecycles of an accepted change",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

// OnEvent implements state.Observer.
func (o *Observer) OnEvent(event state.Event) {
	kind := event.Kind.String()
	switch event.Type {
	case state.EventAttach:
		o.lifecycles.Inc()
	case state.EventDetach:
		o.lifecycles.Dec()
	case state.EventUpdateBegin:
		o.updates.WithLabelValues(kind).Inc()
		o.push(event.Time)
	case state.EventUpdateEnd:
		if start, ok := o.pop(); ok {
			o.propagation.WithLabelValues(kind).Observe(event.Time.Sub(start).Seconds())
		}
	case state.EventUpdateSuppressed:
		o.suppressed.WithLabelValues(kind).Inc()
	case state.EventUpdateRejected:
		o.rejected.Inc()
	case state.EventTeardown:
		o.teardowns.WithLabelValues(kind).Inc()
		o.lifecycles.Sub(float64(event.Lifecycles))
	}
}

// Propagation is synchronous, so begin/end pairs nest like a call stack.
func (o *Observer) push(t time.Time) {
	o.mu.Lock()
	o.started = append(o.started, t)
	o.mu.Unlock()
}

func (o *Observer) pop() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.started) == 0 {
		return time.Time{}, false
	}
	t := o.started[len(o.started)-1]
	o.started = o.started[:len(o.started)-1]
	return t, true
}
