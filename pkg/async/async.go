package async

import (
	"context"
	"fmt"
)

// Future is a join handle for a computation running in its own goroutine.
// Any number of callers may await the same Future; the computation runs once.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Go starts fn in a new goroutine and returns its Future.
// A context that is already cancelled completes the Future with ctx.Err()
// without calling fn.
func Go[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}

		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()

		f.result, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already completed Future.
func Resolved[U any](v U, err error) *Future[U] {
	f := &Future[U]{result: v, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Await blocks until the computation completes or ctx is done.
// Cancelling ctx abandons the wait only; the computation keeps running.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// Done returns a channel closed once the computation has completed.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
