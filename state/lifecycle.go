package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Lifecycle is a set of optional callbacks attached to a state.
// Setup runs once when attached, Update runs once per accepted change with
// the new and previous values, and Teardown runs once when the state is torn
// down. Removing a lifecycle does not run Teardown.
type Lifecycle[T any] struct {
	Setup    func()
	Update   func(next, prev T)
	Teardown func()
}

type entry[T any] struct {
	handle  uint64
	lc      Lifecycle[T]
	removed bool
}

// cell is the value and lifecycle registry shared by Root and Derived.
type cell[T any] struct {
	mu       sync.Mutex
	id       ulid.ULID
	kind     Kind
	cfg      config
	upstream []ulid.ULID
	value    T
	equal    EqualFunc[T]
	entries  []*entry[T]
	next     uint64
	closed   bool
}

func newCell[T any](kind Kind, initial T, cfg config) *cell[T] {
	return &cell[T]{
		id:    ulid.Make(),
		kind:  kind,
		cfg:   cfg,
		value: initial,
	}
}

func (c *cell[T]) peek() T {
	c.mu.Lock()
	value := c.value
	c.mu.Unlock()
	return value
}

func (c *cell[T]) setEqualFunc(fn EqualFunc[T]) {
	c.mu.Lock()
	c.equal = fn
	c.mu.Unlock()
}

func (c *cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return StrictEqual(a, b)
}

// attach registers lc and runs its Setup. Attaching to a torn-down state
// records nothing and returns a no-op remover.
func (c *cell[T]) attach(lc Lifecycle[T]) func() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	c.next++
	e := &entry[T]{handle: c.next, lc: lc}
	c.entries = append(c.entries, e)
	count := len(c.entries)
	c.mu.Unlock()

	c.emit(EventAttach, count, nil)
	if lc.Setup != nil {
		lc.Setup()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.remove(e.handle)
		})
	}
}

func (c *cell[T]) remove(handle uint64) {
	c.mu.Lock()
	found := false
	for i, e := range c.entries {
		if e.handle == handle {
			e.removed = true
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			found = true
			break
		}
	}
	count := len(c.entries)
	c.mu.Unlock()
	if found {
		c.emit(EventDetach, count, nil)
	}
}

func (c *cell[T]) watch(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	if c.tornDown() {
		fn(c.peek())
		return func() {}
	}
	return c.attach(Lifecycle[T]{
		Setup: func() {
			fn(c.peek())
		},
		Update: func(next, _ T) {
			fn(next)
		},
	})
}

// set stores next and notifies lifecycles in attach order when it differs
// from the current value. It reports whether the value changed.
func (c *cell[T]) set(next T) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	prev := c.value
	if c.equals(prev, next) {
		count := len(c.entries)
		c.mu.Unlock()
		c.emit(EventUpdateSuppressed, count, nil)
		return false
	}
	c.value = next
	entries := make([]*entry[T], len(c.entries))
	copy(entries, c.entries)
	c.mu.Unlock()

	c.emit(EventUpdateBegin, len(entries), nil)
	for _, e := range entries {
		if e.lc.Update == nil || c.isRemoved(e) {
			continue
		}
		e.lc.Update(next, prev)
	}
	c.emit(EventUpdateEnd, len(entries), nil)
	return true
}

func (c *cell[T]) isRemoved(e *entry[T]) bool {
	c.mu.Lock()
	removed := e.removed
	c.mu.Unlock()
	return removed
}

// teardown closes the state, clears the registry and runs every Teardown
// callback in attach order. Only the first call has any effect.
func (c *cell[T]) teardown() bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	entries := c.entries
	c.entries = nil
	for _, e := range entries {
		e.removed = true
	}
	c.mu.Unlock()

	c.emit(EventTeardown, len(entries), nil)
	for _, e := range entries {
		if e.lc.Teardown != nil {
			e.lc.Teardown()
		}
	}
	return true
}

func (c *cell[T]) tornDown() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	return closed
}

func (c *cell[T]) describe() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	var upstream []ulid.ULID
	if len(c.upstream) > 0 {
		upstream = append(upstream, c.upstream...)
	}
	return Info{
		ID:         c.id,
		Label:      c.cfg.label,
		Kind:       c.kind,
		Upstream:   upstream,
		Lifecycles: len(c.entries),
		TornDown:   c.closed,
		Value:      c.value,
	}
}

func (c *cell[T]) logger() *slog.Logger {
	if c.cfg.logger != nil {
		return c.cfg.logger
	}
	return slog.Default()
}

func (c *cell[T]) emit(kind EventType, lifecycles int, err error) {
	if c.cfg.observer == nil {
		return
	}
	c.cfg.observer.OnEvent(Event{
		Type:       kind,
		StateID:    c.id,
		Label:      c.cfg.label,
		Kind:       c.kind,
		Lifecycles: lifecycles,
		Err:        err,
		Time:       time.Now(),
	})
}
