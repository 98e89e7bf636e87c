package state

import "github.com/oklog/ulid/v2"

// Derived is a read-only state computed from one or more upstream states.
// It subscribes to its upstreams when created, so Peek never recomputes.
type Derived[T any] struct {
	cell *cell[T]
	subs Subscriptions
}

// Map derives a state holding fn applied to the value of src.
// The derived state recomputes on every accepted change of src and tears down
// when src tears down.
func Map[T, U any](src Readable[T], fn func(T) U, opts ...Option) *Derived[U] {
	d := &Derived[U]{
		cell: newCell(KindDerived, fn(src.Peek()), inherit(src, opts)),
	}
	d.cell.upstream = []ulid.ULID{src.Describe().ID}
	d.subs.Add(src.Attach(Lifecycle[T]{
		Update: func(next, _ T) {
			d.cell.set(fn(next))
		},
		Teardown: d.Teardown,
	}))
	if src.TornDown() {
		d.Teardown()
	}
	return d
}

// Combine derives a state holding fn applied to the values of a and b.
// A change of either upstream recomputes with that upstream's new value and
// the other's current value. The first upstream teardown tears the combined
// state down.
func Combine[A, B, C any](a Readable[A], b Readable[B], fn func(A, B) C, opts ...Option) *Derived[C] {
	d := &Derived[C]{
		cell: newCell(KindDerived, fn(a.Peek(), b.Peek()), inherit(a, opts)),
	}
	d.cell.upstream = []ulid.ULID{a.Describe().ID, b.Describe().ID}
	d.subs.Add(a.Attach(Lifecycle[A]{
		Update: func(next, _ A) {
			d.cell.set(fn(next, b.Peek()))
		},
		Teardown: d.Teardown,
	}))
	d.subs.Add(b.Attach(Lifecycle[B]{
		Update: func(next, _ B) {
			d.cell.set(fn(a.Peek(), next))
		},
		Teardown: d.Teardown,
	}))
	if a.TornDown() || b.TornDown() {
		d.Teardown()
	}
	return d
}

// SetEqualFunc configures the equality check used to suppress redundant
// recomputations. A nil fn restores StrictEqual.
func (d *Derived[T]) SetEqualFunc(fn EqualFunc[T]) {
	if d == nil {
		return
	}
	d.cell.setEqualFunc(fn)
}

// ID returns the diagnostic identifier of the state.
func (d *Derived[T]) ID() ulid.ULID {
	if d == nil {
		return ulid.ULID{}
	}
	return d.cell.id
}

// Peek returns the current derived value.
func (d *Derived[T]) Peek() T {
	if d == nil {
		var zero T
		return zero
	}
	return d.cell.peek()
}

// Update always fails with ErrPassiveUpdate. The attempt is logged at error
// level and leaves the value and lifecycles untouched. It exists so a derived
// state held as a Writable cannot silently corrupt the graph.
func (d *Derived[T]) Update(T) error {
	if d == nil {
		return ErrPassiveUpdate
	}
	d.cell.logger().Error("cannot update passive state",
		"state", d.cell.id.String(),
		"label", d.cell.cfg.label,
	)
	d.cell.emit(EventUpdateRejected, 0, ErrPassiveUpdate)
	return ErrPassiveUpdate
}

// Attach registers lc, runs its Setup, and returns a function that removes it.
func (d *Derived[T]) Attach(lc Lifecycle[T]) func() {
	if d == nil {
		return func() {}
	}
	return d.cell.attach(lc)
}

// Watch calls fn with the current value now and with every later change.
// The returned function stops delivery.
func (d *Derived[T]) Watch(fn func(T)) func() {
	if d == nil {
		return func() {}
	}
	return d.cell.watch(fn)
}

// Teardown releases the upstream subscriptions, then runs every attached
// Teardown callback. Only the first call has any effect.
func (d *Derived[T]) Teardown() {
	if d == nil {
		return
	}
	d.subs.Clear()
	d.cell.teardown()
}

// TornDown reports whether Teardown has run.
func (d *Derived[T]) TornDown() bool {
	if d == nil {
		return true
	}
	return d.cell.tornDown()
}

// Describe returns a diagnostic snapshot.
func (d *Derived[T]) Describe() Info {
	if d == nil {
		return Info{}
	}
	return d.cell.describe()
}

func (d *Derived[T]) settings() config {
	return d.cell.cfg
}
