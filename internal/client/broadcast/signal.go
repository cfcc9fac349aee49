// Package broadcast provides Signal, an observable value with
// replay-on-subscribe and edge-triggered change notification. The client
// keeps a single Signal[bool] as its authoritative "is authenticated" flag.
package broadcast

import (
	"context"
	"sync"
)

// Signal holds a value and notifies listeners when it changes.
//
// Listeners run synchronously, in subscription order, on the goroutine that
// performs the change. A listener that changes the signal from inside its
// callback does not recurse: the new value is queued and delivered once the
// current emission has reached every listener. When another goroutine is
// already emitting, Set and Subscribe enqueue their delivery and return; the
// emitting goroutine delivers it in order.
type Signal[T comparable] struct {
	mu          sync.Mutex
	value       T
	seq         uint64
	listeners   []*Subscription[T]
	queue       []delivery[T]
	dispatching bool
}

type delivery[T comparable] struct {
	value T
	seq   uint64
	// only restricts a replay to the subscriber that asked for it
	only *Subscription[T]
}

// Subscription is the handle returned by Subscribe.
type Subscription[T comparable] struct {
	signal *Signal[T]
	fn     func(T)
	from   uint64
	active bool
}

// New returns a Signal seeded with initial.
func New[T comparable](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// Current returns a snapshot of the value.
func (s *Signal[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and notifies every listener. It reports whether the value
// changed; setting the current value again emits nothing.
func (s *Signal[T]) Set(v T) bool {
	s.mu.Lock()
	if v == s.value {
		s.mu.Unlock()
		return false
	}
	s.value = v
	s.seq++
	s.queue = append(s.queue, delivery[T]{value: v, seq: s.seq})
	s.dispatchLocked()
	return true
}

// Subscribe registers fn and immediately replays the current value to it,
// then delivers every later change.
func (s *Signal[T]) Subscribe(fn func(T)) *Subscription[T] {
	s.mu.Lock()
	sub := &Subscription[T]{signal: s, fn: fn, from: s.seq, active: true}
	s.listeners = append(s.listeners, sub)
	s.queue = append(s.queue, delivery[T]{value: s.value, seq: s.seq, only: sub})
	s.dispatchLocked()
	return sub
}

// dispatchLocked drains the queue. It is entered with s.mu held and
// returns with it released.
func (s *Signal[T]) dispatchLocked() {
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true

	for len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]

		var targets []*Subscription[T]
		if d.only != nil {
			targets = []*Subscription[T]{d.only}
		} else {
			targets = make([]*Subscription[T], 0, len(s.listeners))
			for _, l := range s.listeners {
				if d.seq > l.from {
					targets = append(targets, l)
				}
			}
		}
		s.mu.Unlock()

		for _, l := range targets {
			if l.isActive() {
				l.fn(d.value)
			}
		}

		s.mu.Lock()
	}

	s.dispatching = false
	s.mu.Unlock()
}

// Listeners returns the number of active subscriptions.
func (s *Signal[T]) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (sub *Subscription[T]) isActive() bool {
	sub.signal.mu.Lock()
	defer sub.signal.mu.Unlock()
	return sub.active
}

// Unsubscribe stops delivery to this subscription. Calling it more than
// once is harmless.
func (sub *Subscription[T]) Unsubscribe() {
	s := sub.signal
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sub.active {
		return
	}
	sub.active = false
	for i, l := range s.listeners {
		if l == sub {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			break
		}
	}
}

// Changes exposes the signal as a channel. The current value is sent first.
// The channel is closed after ctx is done; a slow reader holds up the
// emitting goroutine until it reads or ctx ends.
func (s *Signal[T]) Changes(ctx context.Context) <-chan T {
	ch := make(chan T, 8)

	var (
		mu     sync.Mutex
		closed bool
	)

	sub := s.Subscribe(func(v T) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- v:
		case <-ctx.Done():
		}
	})

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()

	return ch
}
