package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ExecutorOption configures an Executor.
type ExecutorOption[T any] func(*hooks[T])

type hooks[T any] struct {
	onSuccess func(T)
	onError   func(string)
}

// WithOnSuccess registers a callback fired after a successful result is committed.
func WithOnSuccess[T any](fn func(data T)) ExecutorOption[T] {
	return func(h *hooks[T]) { h.onSuccess = fn }
}

// WithOnError registers a callback fired after a failure is committed.
func WithOnError[T any](fn func(msg string)) ExecutorOption[T] {
	return func(h *hooks[T]) { h.onError = fn }
}

// Executor wraps one Call and tracks its State.
//
// Every Execute takes a new generation. Only the most recently issued call
// may commit its outcome; older calls that settle later are discarded.
type Executor[A, T any] struct {
	call  Call[A, T]
	hooks hooks[T]

	mu    sync.Mutex
	state State[T]
	gen   uint64
}

// NewExecutor creates an idle Executor for call.
func NewExecutor[A, T any](call Call[A, T], opts ...ExecutorOption[T]) *Executor[A, T] {
	e := &Executor[A, T]{call: call}
	for _, opt := range opts {
		opt(&e.hooks)
	}
	return e
}

// State returns the current state.
func (e *Executor[A, T]) State() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset returns the executor to Idle. Calls still in flight are discarded
// when they settle.
func (e *Executor[A, T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = State[T]{}
}

// Execute runs the call and blocks until it settles.
//
// The state is Loading while the call is pending. On success the payload is
// returned; on failure the error is returned after the Error state is
// recorded. Business rejections are returned as *RejectedError. A call that
// was superseded returns ErrSuperseded and a call whose ctx was cancelled
// returns an error wrapping ErrAbandoned; neither touches the state.
//
// A panic inside a callback is recorded as an Error state and returned as
// *PanicError. When onSuccess panics, onError fires in its place so each
// committed call still fires exactly one callback.
func (e *Executor[A, T]) Execute(ctx context.Context, args A) (T, error) {
	gen := e.begin()

	res, err := invoke(ctx, e.call, args)

	var zero T
	if err == nil && res.Success {
		if cerr := e.commit(ctx, gen, successState(res.Data)); cerr != nil {
			return zero, cerr
		}
		if e.hooks.onSuccess == nil {
			return res.Data, nil
		}
		perr := protect("onSuccess callback", func() { e.hooks.onSuccess(res.Data) })
		if perr == nil {
			return res.Data, nil
		}
		return zero, e.failCallback(gen, perr, true)
	}

	msg := ErrorMessage(res, err)
	if cerr := e.commit(ctx, gen, errorState[T](msg)); cerr != nil {
		return zero, cerr
	}
	if e.hooks.onError != nil {
		if perr := protect("onError callback", func() { e.hooks.onError(msg) }); perr != nil {
			return zero, e.failCallback(gen, perr, false)
		}
	}
	if err == nil {
		err = &RejectedError{Message: msg}
	}
	return zero, err
}

// failCallback records a callback panic as the Error state of gen, unless a
// newer call took over, and fires onError when notify is set.
func (e *Executor[A, T]) failCallback(gen uint64, perr error, notify bool) error {
	msg := perr.Error()
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return perr
	}
	e.state = errorState[T](msg)
	e.mu.Unlock()

	if notify && e.hooks.onError != nil {
		// a second panic changes nothing; the state already holds the first
		_ = protect("onError callback", func() { e.hooks.onError(msg) })
	}
	return perr
}

// fail records err as a fresh Error state without running the call and
// fires onError.
func (e *Executor[A, T]) fail(err error) {
	msg := ErrorMessage(Result[T]{}, err)
	e.mu.Lock()
	e.gen++
	e.state = errorState[T](msg)
	e.mu.Unlock()

	if e.hooks.onError != nil {
		_ = protect("onError callback", func() { e.hooks.onError(msg) })
	}
}

// resetIfLoading returns the executor to Idle when a call is pending.
func (e *Executor[A, T]) resetIfLoading() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Loading() {
		e.gen++
		e.state = State[T]{}
	}
}

func (e *Executor[A, T]) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = loadingState[T]()
	return e.gen
}

// commit applies next if gen is still current and ctx was not cancelled.
func (e *Executor[A, T]) commit(ctx context.Context, gen uint64, next State[T]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return ErrSuperseded
	}
	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		e.state = State[T]{}
		return fmt.Errorf("%w: %w", ErrAbandoned, err)
	}
	e.state = next
	return nil
}
