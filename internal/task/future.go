// Package task provides a small future type for work whose result several
// later tasks wait on.
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned by Wait on a future cancelled before it finished.
var ErrCancelled = errors.New("task cancelled")

// Future is the eventual result of a function started with Go.
type Future[T any] struct {
	name     string
	done     chan struct{}
	finished chan struct{}

	once   sync.Once
	cancel context.CancelFunc
	value  T
	err    error
}

// Go runs fn in a new goroutine and returns its future. Cancelling the
// future cancels the context handed to fn.
func Go[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{name: name, done: make(chan struct{}), finished: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(f.finished)
		v, err := fn(ctx)
		f.finish(v, err)
	}()
	return f
}

func (f *Future[T]) finish(v T, err error) {
	f.once.Do(func() {
		f.value, f.err = v, err
		f.cancel()
		close(f.done)
	})
}

// Name returns the name the future was started with.
func (f *Future[T]) Name() string { return f.name }

// Cancel abandons the future. Waiters see ErrCancelled unless the function
// had already completed.
func (f *Future[T]) Cancel() {
	var zero T
	f.finish(zero, ErrCancelled)
}

// Cancelled reports whether the future was cancelled before completing.
func (f *Future[T]) Cancelled() bool {
	select {
	case <-f.done:
		return errors.Is(f.err, ErrCancelled)
	default:
		return false
	}
}

// Join blocks until the function behind the future has returned, which may
// be after a cancelled future was already resolved.
func (f *Future[T]) Join() { <-f.finished }

// Wait blocks until the future completes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
