// Package tracing records state propagation as OpenTelemetry spans.
//
// Every accepted update becomes a "state.update" span. Updates of derived
// states triggered during that propagation become child spans, so a trace
// mirrors the depth-first order in which the graph was resolved.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/odvcencio/livestate/state"
)

const defaultTracerName = "livestate"

// Span names.
const (
	SpanUpdate   = "state.update"
	SpanRejected = "state.update.rejected"
	SpanTeardown = "state.teardown"
)

// Config configures the tracing observer.
type Config struct {
	// TracerName is the name of the tracer (default: "livestate").
	TracerName string

	// Provider supplies the tracer. Defaults to the global provider.
	Provider trace.TracerProvider

	// Parent is the context new root spans are started from.
	Parent context.Context
}

// Option configures the tracing observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithParent sets the context that top-level update spans are children of.
func WithParent(ctx context.Context) Option {
	return func(c *Config) {
		c.Parent = ctx
	}
}

type frame struct {
	ctx  context.Context
	span trace.Span
}

// Observer turns state events into spans.
type Observer struct {
	tracer trace.Tracer
	parent context.Context

	mu    sync.Mutex
	stack []frame
}

// New creates a tracing observer.
func New(opts ...Option) *Observer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	parent := config.Parent
	if parent == nil {
		parent = context.Background()
	}
	return &Observer{
		tracer: provider.Tracer(config.TracerName),
		parent: parent,
	}
}

// OnEvent implements state.Observer.
func (o *Observer) OnEvent(event state.Event) {
	switch event.Type {
	case state.EventUpdateBegin:
		ctx, span := o.start(SpanUpdate, event)
		o.mu.Lock()
		o.stack = append(o.stack, frame{ctx: ctx, span: span})
		o.mu.Unlock()
	case state.EventUpdateEnd:
		o.mu.Lock()
		if len(o.stack) == 0 {
			o.mu.Unlock()
			return
		}
		top := o.stack[len(o.stack)-1]
		o.stack = o.stack[:len(o.stack)-1]
		o.mu.Unlock()
		top.span.End(trace.WithTimestamp(event.Time))
	case state.EventUpdateRejected:
		_, span := o.start(SpanRejected, event)
		if event.Err != nil {
			span.RecordError(event.Err)
			span.SetStatus(codes.Error, event.Err.Error())
		}
		span.End(trace.WithTimestamp(event.Time))
	case state.EventTeardown:
		_, span := o.start(SpanTeardown, event)
		span.End(trace.WithTimestamp(event.Time))
	}
}

func (o *Observer) start(name string, event state.Event) (context.Context, trace.Span) {
	o.mu.Lock()
	ctx := o.parent
	if n := len(o.stack); n > 0 {
		ctx = o.stack[n-1].ctx
	}
	o.mu.Unlock()

	attrs := []attribute.KeyValue{
		attribute.String("state.id", event.StateID.String()),
		attribute.String("state.kind", event.Kind.String()),
		attribute.Int("state.lifecycles", event.Lifecycles),
	}
	if event.Label != "" {
		attrs = append(attrs, attribute.String("state.label", event.Label))
	}
	return o.tracer.Start(ctx, name,
		trace.WithTimestamp(event.Time),
		trace.WithAttributes(attrs...),
	)
}
