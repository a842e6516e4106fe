package pool

import (
	"context"
	"sync"
)

// Future is a one-shot completion signal for an asynchronous shutdown.
// It resolves exactly once to a success flag and an optional error;
// later completion attempts are no-ops.
//
// A Future is safe for concurrent use. Callers decide whether to block:
//
//	ok, err := p.Shutdown(quiet, timeout).Await(ctx)
type Future struct {
	done chan struct{}
	once sync.Once
	ok   bool
	err  error
}

// NewFuture creates an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Completed returns an already-resolved Future.
func Completed(ok bool, err error) *Future {
	f := NewFuture()
	f.Complete(ok, err)
	return f
}

// Complete resolves the future. Only the first call has any effect.
func (f *Future) Complete(ok bool, err error) {
	f.once.Do(func() {
		f.ok = ok
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx is cancelled.
// The bool result is false both for a failed shutdown and for a
// cancelled wait; inspect the error to tell them apart.
func (f *Future) Await(ctx context.Context) (bool, error) {
	select {
	case <-f.done:
		return f.ok, f.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
