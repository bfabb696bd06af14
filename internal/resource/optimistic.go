package resource

import (
	"context"
	"sync"
)

// OverlayState is what a view renders for an optimistic mutation.
type OverlayState[T any] struct {
	State[T]
	Visible    T
	Optimistic bool
}

// Overlay runs a mutation through an Executor while showing a speculative
// value computed locally from the last confirmed value.
//
// When the call fails the speculative value is dropped and Visible falls
// back to the last confirmed payload; State still reports the error.
type Overlay[A, T any] struct {
	exec   *Executor[A, T]
	update func(confirmed T, args A) (T, bool)

	mu          sync.Mutex
	confirmed   T
	speculative T
	optimistic  bool
	gen         uint64
}

// NewOverlay creates an Overlay seeded with a confirmed value. update derives
// the speculative value; returning false skips the speculative display.
func NewOverlay[A, T any](call Call[A, T], update func(confirmed T, args A) (T, bool), initial T, opts ...ExecutorOption[T]) *Overlay[A, T] {
	return &Overlay[A, T]{
		exec:      NewExecutor(call, opts...),
		update:    update,
		confirmed: initial,
	}
}

// SetConfirmed replaces the confirmed value, e.g. after a reload.
func (o *Overlay[A, T]) SetConfirmed(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.confirmed = v
}

// Execute publishes the speculative value, then runs the call and blocks
// until it settles. Errors are returned to the caller.
//
// A panic inside update is recorded as an Error state and returned as
// *PanicError; the call is not issued and nothing speculative is shown.
func (o *Overlay[A, T]) Execute(ctx context.Context, args A) (T, error) {
	var zero T

	o.mu.Lock()
	o.gen++
	gen := o.gen
	confirmed := o.confirmed
	o.speculative, o.optimistic = zero, false
	o.mu.Unlock()

	if o.update != nil {
		var (
			next T
			ok   bool
		)
		if err := protect("overlay update", func() { next, ok = o.update(confirmed, args) }); err != nil {
			o.exec.fail(err)
			return zero, err
		}
		if ok {
			o.mu.Lock()
			if gen == o.gen {
				o.speculative, o.optimistic = next, true
			}
			o.mu.Unlock()
		}
	}

	data, err := o.exec.Execute(ctx, args)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err == nil {
		o.confirmed = data
	}
	if gen == o.gen {
		o.speculative, o.optimistic = zero, false
	}
	return data, err
}

// View returns the raw executor state and the value to display.
func (o *Overlay[A, T]) View() OverlayState[T] {
	st := o.exec.State()

	o.mu.Lock()
	defer o.mu.Unlock()
	v := OverlayState[T]{State: st, Visible: o.confirmed, Optimistic: o.optimistic}
	if o.optimistic {
		v.Visible = o.speculative
	}
	return v
}

// Reset drops any speculative value and returns the executor to Idle.
func (o *Overlay[A, T]) Reset() {
	o.mu.Lock()
	o.gen++
	var zero T
	o.speculative, o.optimistic = zero, false
	o.mu.Unlock()
	o.exec.Reset()
}
