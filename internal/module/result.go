package module

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/modrt/internal/future"
)

// ErrPending is returned by Result.Value for a result that has not settled.
var ErrPending = errors.New("result is pending")

// Kind tags a Result.
type Kind int

const (
	// KindImmediate carries a value available now.
	KindImmediate Kind = iota
	// KindPending carries a future that settles later.
	KindPending
	// KindFailure carries an error raised synchronously.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindImmediate:
		return "immediate"
	case KindPending:
		return "pending"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is what factories and require calls return.
type Result struct {
	kind   Kind
	value  any
	future *future.Future
	err    error
}

// Immediate returns a settled, successful result.
func Immediate(v any) Result {
	return Result{kind: KindImmediate, value: v}
}

// Done is the result of a synchronous factory that populated its exports.
func Done() Result {
	return Immediate(nil)
}

// Pending wraps a future.
func Pending(f *future.Future) Result {
	if f == nil {
		panic("module: Pending called with nil future")
	}
	return Result{kind: KindPending, future: f}
}

// Failure returns a synchronously failed result.
func Failure(err error) Result {
	if err == nil {
		panic("module: Failure called with nil error")
	}
	return Result{kind: KindFailure, err: err}
}

// Kind reports which variant r holds.
func (r Result) Kind() Kind { return r.kind }

// IsPending reports whether r is the Pending variant.
func (r Result) IsPending() bool { return r.kind == KindPending }

// Future returns the future of a Pending result, nil otherwise.
func (r Result) Future() *future.Future { return r.future }

// Err returns the error of a Failure result, nil otherwise.
func (r Result) Err() error { return r.err }

// Value returns the value without blocking. A Pending result that already
// settled yields its outcome; one still in flight yields ErrPending.
func (r Result) Value() (any, error) {
	switch r.kind {
	case KindImmediate:
		return r.value, nil
	case KindFailure:
		return nil, r.err
	default:
		v, err := r.future.Result()
		if errors.Is(err, future.ErrNotSettled) {
			return nil, ErrPending
		}
		return v, err
	}
}

// Await blocks until the result is available.
func (r Result) Await(ctx context.Context) (any, error) {
	switch r.kind {
	case KindImmediate:
		return r.value, nil
	case KindFailure:
		return nil, r.err
	default:
		return r.future.Await(ctx)
	}
}

// AsFuture returns a future view of any variant.
func (r Result) AsFuture() *future.Future {
	switch r.kind {
	case KindImmediate:
		return future.Resolved(r.value)
	case KindFailure:
		return future.Rejected(r.err)
	default:
		return r.future
	}
}
