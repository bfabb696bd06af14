// Package resource provides the asynchronous resource layer used by every
// screen: a request executor with a uniform {status, data, error} state,
// and the pagination, polling, optimistic and batch primitives layered on it.
//
// All primitives are safe for concurrent use. A call is any function that
// returns a Result or an error; the HTTP binding lives in internal/api.
package resource

import (
	"context"
	"errors"
	"fmt"
)

// Fallback messages used when neither the result nor the error carries text.
const (
	FallbackRejected   = "An error occurred"
	FallbackUnexpected = "An unexpected error occurred"
)

var (
	// ErrSuperseded is returned by a call that settled after a newer call
	// was issued on the same primitive. Its outcome was discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrAbandoned is returned when the caller's context was cancelled
	// before the call settled. Its outcome was discarded.
	ErrAbandoned = errors.New("request abandoned")
)

// Result is the normalized outcome of a call.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps data in a successful Result.
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a business rejection Result.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Success: false, Error: msg}
}

// Call is an asynchronous operation from args to a Result. A non-nil error
// is the transport failure form; a Result with Success=false is a business
// rejection.
type Call[A, T any] func(ctx context.Context, args A) (Result[T], error)

// FromFunc adapts a conventional (T, error) function into a Call.
func FromFunc[A, T any](fn func(ctx context.Context, args A) (T, error)) Call[A, T] {
	return func(ctx context.Context, args A) (Result[T], error) {
		data, err := fn(ctx, args)
		if err != nil {
			return Result[T]{}, err
		}
		return OK(data), nil
	}
}

// RejectedError is returned to the caller of Execute when the callee was
// reached but refused the request.
type RejectedError struct {
	Message string
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return e.Message
}

// PanicError wraps a value recovered from a panicking call, callback or
// overlay update. Op names which one; empty means the call.
type PanicError struct {
	Op    string
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	op := e.Op
	if op == "" {
		op = "call"
	}
	return fmt.Sprintf("%s panicked: %v", op, e.Value)
}

// ErrorMessage extracts the human-readable message for a failed call.
// Priority: the result's structured error, then its message or the error
// text, then a fallback literal.
func ErrorMessage[T any](res Result[T], err error) string {
	if res.Error != "" {
		return res.Error
	}
	if err != nil {
		if msg := err.Error(); msg != "" {
			return msg
		}
		return FallbackUnexpected
	}
	if res.Message != "" {
		return res.Message
	}
	return FallbackRejected
}

// invoke runs call and converts a panic into a PanicError.
func invoke[A, T any](ctx context.Context, call Call[A, T], args A) (res Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{}
			err = &PanicError{Value: r}
		}
	}()
	return call(ctx, args)
}

// protect runs fn and converts a panic into a PanicError tagged with op.
func protect(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Op: op, Value: r}
		}
	}()
	fn()
	return nil
}
