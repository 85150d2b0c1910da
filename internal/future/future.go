// Package future provides the pending-result primitive used by the loader: a
// value that settles exactly once, which any number of goroutines may await.
package future

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotSettled is returned by Result on a future that has not settled yet.
var ErrNotSettled = errors.New("future not settled")

// Future is a write-once result. The zero value is not usable; call New.
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

// New returns an unsettled future.
func New() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved(v any) *Future {
	f := New()
	f.Resolve(v)
	return f
}

// Rejected returns a future already settled with err.
func Rejected(err error) *Future {
	f := New()
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It reports whether this call settled it.
func (f *Future) Resolve(v any) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports whether this call settled it.
func (f *Future) Reject(err error) bool {
	if err == nil {
		panic("future: Reject called with nil error")
	}
	return f.settle(nil, err)
}

func (f *Future) settle(v any, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the settled value without blocking.
func (f *Future) Result() (any, error) {
	if !f.Settled() {
		return nil, ErrNotSettled
	}
	return f.value, f.err
}

// Await blocks until the future settles or ctx is done. Giving up on ctx does
// not cancel the work behind the future.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go runs fn on a new goroutine and returns a future for its outcome. A panic
// in fn rejects the future instead of crashing the process.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := New()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(PanicError{Value: r})
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// PanicError wraps a value recovered from a panicking goroutine.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
