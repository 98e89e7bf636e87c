package state

import "sync"

// Subscriptions tracks and clears multiple remover callbacks.
// The zero value is ready to use.
type Subscriptions struct {
	mu     sync.Mutex
	unsubs []func()
}

// Add registers a remover callback.
func (s *Subscriptions) Add(unsub func()) {
	if s == nil || unsub == nil {
		return
	}
	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
}

// Len returns the number of tracked removers.
func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	n := len(s.unsubs)
	s.mu.Unlock()
	return n
}

// Clear calls every tracked remover once and forgets them.
func (s *Subscriptions) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

// Observe watches src with fn and tracks the detach function in subs.
func Observe[T any](subs *Subscriptions, src Readable[T], fn func(T)) {
	if subs == nil || src == nil || fn == nil {
		return
	}
	subs.Add(src.Watch(fn))
}

// Track attaches lc to src and tracks the remover in subs.
func Track[T any](subs *Subscriptions, src Readable[T], lc Lifecycle[T]) {
	if subs == nil || src == nil {
		return
	}
	subs.Add(src.Attach(lc))
}
