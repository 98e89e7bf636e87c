package state

import "github.com/oklog/ulid/v2"

// Readable exposes read-only reactive state.
type Readable[T any] interface {
	Describer
	Peek() T
	Attach(lc Lifecycle[T]) func()
	Watch(fn func(T)) func()
	Teardown()
	TornDown() bool
}

// Writable exposes read/write reactive state.
type Writable[T any] interface {
	Readable[T]
	Update(value T) error
}

// Describer reports a diagnostic snapshot of a state.
type Describer interface {
	Describe() Info
}

// Kind distinguishes root states from derived states.
type Kind uint8

const (
	KindRoot Kind = iota + 1
	KindDerived
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// Info is a point-in-time snapshot of a state used by diagnostics.
type Info struct {
	ID         ulid.ULID
	Label      string
	Kind       Kind
	Upstream   []ulid.ULID
	Lifecycles int
	TornDown   bool
	Value      any
}

// Name returns the label, or the ID when no label was set.
func (i Info) Name() string {
	if i.Label != "" {
		return i.Label
	}
	return i.ID.String()
}
