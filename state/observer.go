package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies a lifecycle event emitted by a state.
type EventType string

const (
	EventAttach           EventType = "state.attach"
	EventDetach           EventType = "state.detach"
	EventUpdateBegin      EventType = "state.update.begin"
	EventUpdateEnd        EventType = "state.update.end"
	EventUpdateSuppressed EventType = "state.update.suppressed"
	EventUpdateRejected   EventType = "state.update.rejected"
	EventTeardown         EventType = "state.teardown"
)

// Event describes something that happened to a single state.
// UpdateBegin and UpdateEnd bracket the synchronous notification pass of an
// accepted change, so events from downstream states nest between them.
type Event struct {
	Type       EventType
	StateID    ulid.ULID
	Label      string
	Kind       Kind
	Lifecycles int
	Err        error
	Time       time.Time
}

// Observer receives state events for logging, tracing, or metrics.
// OnEvent runs synchronously on the goroutine that caused the event.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(Event)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(event Event) {
	if f != nil {
		f(event)
	}
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(Event) {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(event)
	}
}

// SlogObserver writes events to a slog.Logger at debug level.
// Rejected updates are written at error level.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(event Event) {
	level := slog.LevelDebug
	if event.Type == EventUpdateRejected {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("state", event.StateID.String()),
		slog.String("kind", event.Kind.String()),
		slog.Int("lifecycles", event.Lifecycles),
	}
	if event.Label != "" {
		attrs = append(attrs, slog.String("label", event.Label))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
	}
	o.logger.LogAttrs(context.Background(), level, string(event.Type), attrs...)
}
