package async

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Run when called on a loop that has already stopped.
var ErrLoopStopped = errors.New("async: loop stopped")

// Loop is a single-threaded execution context. Work posted with Dispatch runs, in
// posting order, on whichever goroutine calls Run.
type Loop struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to size pending callbacks before
// Dispatch blocks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue:   make(chan func(), size),
		stopped: make(chan struct{}),
	}
}

// Dispatch enqueues fn. Callbacks dispatched after Stop are dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case <-l.stopped:
	case l.queue <- fn:
	}
}

// Run executes queued callbacks until ctx ends or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopped:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop ends Run. It is safe to call more than once and from inside a callback.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}
