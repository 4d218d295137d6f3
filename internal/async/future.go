// Package async runs blocking work off the caller's goroutine and hands results back
// to a single-threaded UI context.
package async

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher schedules fn on the UI execution context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a plain function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Future is the pending result of one background operation.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn on its own goroutine. Each call gets a fresh goroutine; nothing is pooled
// and two futures complete in no particular order.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Background operation panicked", "panic", r)
				f.err = fmt.Errorf("async: operation panicked: %v", r)
			}
		}()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Resolved returns an already completed future.
func Resolved[T any](value T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value, err: err}
	close(f.done)
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is ready or ctx ends. Abandoning a wait does not stop
// the operation itself.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then runs cb on d once the result is ready. cb never runs on the goroutine that did
// the work, even if the future has already completed.
func (f *Future[T]) Then(d Dispatcher, cb func(T, error)) {
	go func() {
		<-f.done
		d.Dispatch(func() { cb(f.value, f.err) })
	}()
}

// Map derives a future from f's result without blocking the caller.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(out.done)
		<-f.done
		if f.err != nil {
			out.err = f.err
			return
		}
		out.value, out.err = fn(f.value)
	}()
	return out
}
