// Package future provides a single-settlement placeholder for an asynchronous
// result.
//
// A Future is created together with its Resolver. The Future side can be
// shared freely and awaited from any goroutine; the Resolver is held by the
// one component allowed to settle it. A Future settles at most once, either
// with a value or with an error.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadySettled is returned when a Resolver is used after the Future has
// been resolved or rejected.
var ErrAlreadySettled = errors.New("future already settled")

// ErrPending is returned by Result while the Future has not settled.
var ErrPending = errors.New("future pending")

// Future is the read side of a pending result.
type Future[T any] struct {
	mu      sync.Mutex
	done    chan struct{}
	settled bool
	value   T
	err     error
}

// Resolver settles the Future it was created with.
type Resolver[T any] struct {
	f *Future[T]
}

// New returns a pending Future and the Resolver that settles it.
func New[T any]() (*Future[T], *Resolver[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, &Resolver[T]{f: f}
}

// Resolve settles the Future with v.
func (r *Resolver[T]) Resolve(v T) error {
	return r.f.settle(v, nil)
}

// Reject settles the Future with err. A nil err is rejected as well, so that
// a rejection is always observable as an error.
func (r *Resolver[T]) Reject(err error) error {
	if err == nil {
		err = errors.New("future rejected")
	}
	var zero T
	return r.f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.settled {
		return ErrAlreadySettled
	}
	f.settled = true
	f.value = v
	f.err = err
	close(f.done)
	return nil
}

// Done returns a channel that is closed once the Future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the Future has been resolved or rejected.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Await blocks until the Future settles or ctx is done. A ctx error does not
// settle the Future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled value and error without blocking, or ErrPending.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		var zero T
		return zero, ErrPending
	}
	return f.value, f.err
}
