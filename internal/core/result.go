package core

import (
	"encoding/json"
	"errors"
)

// ErrUnknownFailure is stored by Failure when it is given a nil error.
var ErrUnknownFailure = errors.New("unknown failure")

// Status is the active tag of a Result.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "loading"
	}
}

// Result is the outcome of an asynchronous operation: Loading, Success
// carrying a value, or Failure carrying an error. The zero value is Loading.
// A Result is never mutated; state transitions replace it wholesale.
type Result[T any] struct {
	status Status
	value  T
	err    error
}

// Loading returns a Result that has no outcome yet.
func Loading[T any]() Result[T] {
	return Result[T]{status: StatusLoading}
}

// Success returns a Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{status: StatusSuccess, value: v}
}

// Failure returns a Result holding err.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = ErrUnknownFailure
	}
	return Result[T]{status: StatusFailure, err: err}
}

func (r Result[T]) Status() Status  { return r.status }
func (r Result[T]) IsLoading() bool { return r.status == StatusLoading }
func (r Result[T]) IsSuccess() bool { return r.status == StatusSuccess }
func (r Result[T]) IsFailure() bool { return r.status == StatusFailure }

// Value returns the success payload and whether the Result is a Success.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.status == StatusSuccess
}

// Err returns the failure cause, or nil for Loading and Success.
func (r Result[T]) Err() error {
	return r.err
}

// OnSuccess calls fn with the payload when r is a Success.
func (r Result[T]) OnSuccess(fn func(T)) Result[T] {
	if r.status == StatusSuccess {
		fn(r.value)
	}
	return r
}

// OnLoading calls fn when r is Loading.
func (r Result[T]) OnLoading(fn func()) Result[T] {
	if r.status == StatusLoading {
		fn()
	}
	return r
}

// OnFailure calls fn with the cause when r is a Failure.
func (r Result[T]) OnFailure(fn func(error)) Result[T] {
	if r.status == StatusFailure {
		fn(r.err)
	}
	return r
}

// AsOther maps the success payload of r with fn. Loading and Failure are
// carried over unchanged.
func AsOther[T, R any](r Result[T], fn func(T) R) Result[R] {
	switch r.status {
	case StatusSuccess:
		return Success(fn(r.value))
	case StatusFailure:
		return Failure[R](r.err)
	default:
		return Loading[R]()
	}
}

// Then is AsOther for a fallible fn: a Success whose mapping fails becomes a
// Failure with fn's error.
func Then[T, R any](r Result[T], fn func(T) (R, error)) Result[R] {
	switch r.status {
	case StatusSuccess:
		v, err := fn(r.value)
		if err != nil {
			return Failure[R](err)
		}
		return Success(v)
	case StatusFailure:
		return Failure[R](r.err)
	default:
		return Loading[R]()
	}
}

type resultJSON[T any] struct {
	Status string `json:"status"`
	Value  *T     `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON[T]{Status: r.status.String()}
	switch r.status {
	case StatusSuccess:
		v := r.value
		out.Value = &v
	case StatusFailure:
		out.Error = r.err.Error()
	}
	return json.Marshal(out)
}
