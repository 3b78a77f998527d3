package dispatch

import (
	"context"
	"fmt"
)

// Future is a handle to a result that becomes available after asynchronous
// completion. A future completes exactly once, with either a value or an
// error; task panics are captured and delivered as errors rather than
// crossing goroutine boundaries.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future completes. Interactive
// code should select on it (or use Then) instead of calling Result.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until completion and returns the outcome. Blocking on the
// interactive goroutine is only permitted at modal boundaries.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait blocks until completion or context cancellation. Cancellation
// abandons the wait, not the task: the task still runs to completion.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit runs fn on the pool and returns a future for its outcome. When the
// pool is already closed the future completes immediately with an error.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()

	ok := p.submit(func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.complete(zero, fmt.Errorf("panic in %s task: %v", p.name, r))
			}
		}()
		f.complete(fn())
	})

	if !ok {
		var zero T
		f.complete(zero, fmt.Errorf("pool %s is closed", p.name))
	}

	return f
}

// Then schedules fn on the pool once prev completes successfully. A failed
// prev short-circuits: fn is not run and the error propagates. This is the
// sequencing primitive for dependent store operations ("verify, then fetch,
// then apply").
func Then[T, U any](p *Pool, prev *Future[T], fn func(T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		val, err := prev.Result()
		if err != nil {
			var zero U
			f.complete(zero, err)
			return
		}

		next := Submit(p, func() (U, error) { return fn(val) })
		f.complete(next.Result())
	}()

	return f
}

// Completed returns an already-resolved future. Useful for validation
// failures that must still travel the future's failure channel.
func Completed[T any](val T, err error) *Future[T] {
	f := newFuture[T]()
	f.complete(val, err)
	return f
}
