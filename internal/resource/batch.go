package resource

import (
	"context"
	"sync"
)

// Outcome is the settled result of one batch item.
type Outcome[T any] struct {
	Success bool
	Data    T
	Err     string
}

// BatchResult maps item keys to outcomes in insertion order. A key seen
// twice keeps its first position and the later outcome.
type BatchResult[T any] struct {
	keys     []string
	outcomes map[string]Outcome[T]
}

func newBatchResult[T any](n int) *BatchResult[T] {
	return &BatchResult[T]{
		keys:     make([]string, 0, n),
		outcomes: make(map[string]Outcome[T], n),
	}
}

func (r *BatchResult[T]) set(key string, o Outcome[T]) {
	if _, ok := r.outcomes[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.outcomes[key] = o
}

// Keys returns the item keys in insertion order.
func (r *BatchResult[T]) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the outcome recorded for key.
func (r *BatchResult[T]) Get(key string) (Outcome[T], bool) {
	o, ok := r.outcomes[key]
	return o, ok
}

// Len returns the number of distinct keys.
func (r *BatchResult[T]) Len() int {
	return len(r.keys)
}

// SuccessCount counts successful outcomes.
func (r *BatchResult[T]) SuccessCount() int {
	n := 0
	for _, o := range r.outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// ErrorCount counts failed outcomes.
func (r *BatchResult[T]) ErrorCount() int {
	return len(r.outcomes) - r.SuccessCount()
}

// Clone returns an independent copy.
func (r *BatchResult[T]) Clone() *BatchResult[T] {
	c := newBatchResult[T](len(r.keys))
	for _, k := range r.keys {
		c.set(k, r.outcomes[k])
	}
	return c
}

// BatchOption configures a BatchRunner.
type BatchOption[T any] func(*batchHooks[T])

type batchHooks[T any] struct {
	onProgress func(partial *BatchResult[T], progress float64)
}

// WithOnProgress registers a callback fired after every item with a copy of
// the partial result and the progress percentage.
func WithOnProgress[T any](fn func(partial *BatchResult[T], progress float64)) BatchOption[T] {
	return func(h *batchHooks[T]) { h.onProgress = fn }
}

// BatchRunner applies one call to many items, one at a time.
type BatchRunner[I, T any] struct {
	call  Call[I, T]
	hooks batchHooks[T]

	mu       sync.Mutex
	results  *BatchResult[T]
	progress float64
	running  bool
	gen      uint64
}

// NewBatchRunner creates a BatchRunner for call.
func NewBatchRunner[I, T any](call Call[I, T], opts ...BatchOption[T]) *BatchRunner[I, T] {
	b := &BatchRunner[I, T]{call: call, results: newBatchResult[T](0)}
	for _, opt := range opts {
		opt(&b.hooks)
	}
	return b
}

// ExecuteBatch runs call for each item in order and returns the outcome of
// every item. A failing item does not stop the batch. Once ctx is done the
// remaining items are recorded as abandoned without being called.
func (b *BatchRunner[I, T]) ExecuteBatch(ctx context.Context, items []I, key func(I) string) *BatchResult[T] {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.results = newBatchResult[T](len(items))
	b.progress = 0
	b.running = true
	b.mu.Unlock()

	results := newBatchResult[T](len(items))
	if len(items) == 0 {
		b.publish(gen, results, 100, false)
		return results
	}

	for i, item := range items {
		results.set(key(item), b.run(ctx, item))
		progress := float64(i+1) / float64(len(items)) * 100
		b.publish(gen, results, progress, i+1 < len(items))
	}
	return results
}

func (b *BatchRunner[I, T]) run(ctx context.Context, item I) Outcome[T] {
	if ctx.Err() != nil {
		return Outcome[T]{Err: ErrAbandoned.Error()}
	}
	res, err := invoke(ctx, b.call, item)
	if err == nil && res.Success {
		return Outcome[T]{Success: true, Data: res.Data}
	}
	return Outcome[T]{Err: ErrorMessage(res, err)}
}

func (b *BatchRunner[I, T]) publish(gen uint64, results *BatchResult[T], progress float64, running bool) {
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.results = results.Clone()
	b.progress = progress
	b.running = running
	b.mu.Unlock()

	if b.hooks.onProgress != nil {
		// a failing observer must not stop the batch
		_ = protect("onProgress callback", func() { b.hooks.onProgress(results.Clone(), progress) })
	}
}

// Results returns a copy of the latest batch result.
func (b *BatchRunner[I, T]) Results() *BatchResult[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results.Clone()
}

// Progress returns the completion percentage of the latest batch.
func (b *BatchRunner[I, T]) Progress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

// Running reports whether a batch is in progress.
func (b *BatchRunner[I, T]) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// SuccessCount counts successful outcomes of the latest batch.
func (b *BatchRunner[I, T]) SuccessCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results.SuccessCount()
}

// ErrorCount counts failed outcomes of the latest batch.
func (b *BatchRunner[I, T]) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results.ErrorCount()
}
