// Package scope ties background work to the lifetime of its owner.
package scope

import (
	"context"
	"sync"
)

// Scope owns a cancellable context. Work started through Go is cancelled
// on Close, and results applied through Deliver are dropped once the
// scope is closed.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel}

	// a cancelled parent closes the scope too
	context.AfterFunc(ctx, s.markClosed)
	return s
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go runs fn in a tracked goroutine. It is a no-op on a closed scope.
func (s *Scope) Go(fn func(ctx context.Context)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

// Deliver runs fn only while the scope is open. Close waits for a running
// fn to return, so nothing is applied after Close returns. fn must not
// call Close or Go on the same scope.
func (s *Scope) Deliver(fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	fn()
	return true
}

func (s *Scope) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close cancels the context. It does not wait for goroutines; use Wait.
func (s *Scope) Close() {
	s.markClosed()
	s.cancel()
}

// Wait blocks until every goroutine started with Go has returned.
func (s *Scope) Wait() {
	s.wg.Wait()
}

func (s *Scope) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
