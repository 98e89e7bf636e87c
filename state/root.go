// Package state provides a minimal synchronous reactive-value runtime.
//
// A Root holds a value that callers change with Update. Map and Combine
// derive read-only states that recompute eagerly whenever an upstream
// changes. Every state exposes the same lifecycle surface: Attach registers
// setup/update/teardown callbacks, Watch delivers the current value and every
// later change, and Teardown ends the state and cascades to its dependents.
//
// Propagation is depth-first and runs to completion inside the Update call
// that caused it.
package state

import "github.com/oklog/ulid/v2"

// Root is an externally mutable reactive value.
type Root[T any] struct {
	cell *cell[T]
}

// Of creates a root state holding initial.
func Of[T any](initial T, opts ...Option) *Root[T] {
	return &Root[T]{cell: newCell(KindRoot, initial, inherit(nil, opts))}
}

// SetEqualFunc configures the equality check used to suppress redundant updates.
// A nil fn restores StrictEqual.
func (r *Root[T]) SetEqualFunc(fn EqualFunc[T]) {
	if r == nil {
		return
	}
	r.cell.setEqualFunc(fn)
}

// ID returns the diagnostic identifier of the state.
func (r *Root[T]) ID() ulid.ULID {
	if r == nil {
		return ulid.ULID{}
	}
	return r.cell.id
}

// Peek returns the current value.
func (r *Root[T]) Peek() T {
	if r == nil {
		var zero T
		return zero
	}
	return r.cell.peek()
}

// Set updates the value and notifies lifecycles if it changed.
// It reports whether the value changed. Set on a torn-down root does nothing.
func (r *Root[T]) Set(value T) bool {
	if r == nil {
		return false
	}
	return r.cell.set(value)
}

// Update updates the value and notifies lifecycles if it changed.
// The error is always nil for a root state.
func (r *Root[T]) Update(value T) error {
	r.Set(value)
	return nil
}

// Attach registers lc, runs its Setup, and returns a function that removes it.
func (r *Root[T]) Attach(lc Lifecycle[T]) func() {
	if r == nil {
		return func() {}
	}
	return r.cell.attach(lc)
}

// Watch calls fn with the current value now and with every later change.
// The returned function stops delivery.
func (r *Root[T]) Watch(fn func(T)) func() {
	if r == nil {
		return func() {}
	}
	return r.cell.watch(fn)
}

// Teardown runs every attached Teardown callback and clears the registry.
// Derived states built on r tear down with it.
func (r *Root[T]) Teardown() {
	if r == nil {
		return
	}
	r.cell.teardown()
}

// TornDown reports whether Teardown has run.
func (r *Root[T]) TornDown() bool {
	if r == nil {
		return true
	}
	return r.cell.tornDown()
}

// Describe returns a diagnostic snapshot.
func (r *Root[T]) Describe() Info {
	if r == nil {
		return Info{}
	}
	return r.cell.describe()
}

func (r *Root[T]) settings() config {
	return r.cell.cfg
}
