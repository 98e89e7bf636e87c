package state

import "log/slog"

// Option configures a state at construction time.
type Option func(*config)

type config struct {
	label    string
	logger   *slog.Logger
	observer Observer
}

// WithLabel sets a diagnostic label. Labels have no behavioral effect.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithLogger sets the logger that receives diagnostics such as rejected
// updates. Derived states inherit their upstream's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver sets the observer that receives lifecycle events.
// Derived states inherit their upstream's observer.
func WithObserver(observer Observer) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// configured is implemented by states that can hand their settings down to
// derived states.
type configured interface {
	settings() config
}

func inherit(parent any, opts []Option) config {
	var cfg config
	if p, ok := parent.(configured); ok {
		cfg = p.settings()
		cfg.label = ""
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
