package resource

import (
	"context"
	"errors"
	"sync"
)

// AccumulatedSet is a snapshot of an Accumulator.
type AccumulatedSet[T any] struct {
	Items      []T
	Pagination *PaginationInfo
	Params     PageParams
	Status     Status
	Err        string
	HasMore    bool
}

// Accumulator drives a paginated call, growing an ordered sequence of items.
// Fetching page 1 replaces the sequence and later pages append to it.
//
// Errors are absorbed and exposed through Snapshot. Each fetch takes a new
// generation; a fetch that settles after a newer one was issued is dropped,
// so a page for stale params never lands in the sequence.
type Accumulator[T any] struct {
	exec *Executor[PageParams, Page[T]]

	mu         sync.Mutex
	params     PageParams
	items      []T
	pagination *PaginationInfo
	gen        uint64
}

// NewAccumulator creates an Accumulator with initial params. No fetch is
// issued until Refresh, UpdateParams or LoadMore is called.
func NewAccumulator[T any](call Call[PageParams, Page[T]], initial PageParams) *Accumulator[T] {
	initial = initial.normalized()
	initial.Page = DefaultPage
	return &Accumulator[T]{
		exec:   NewExecutor(call),
		params: initial.With(nil),
	}
}

// UpdateParams merges partial into the params, resets to page 1, clears the
// accumulated items and fetches. It blocks until the fetch settles.
func (a *Accumulator[T]) UpdateParams(ctx context.Context, partial map[string]string) {
	a.mu.Lock()
	a.params = a.params.With(partial)
	a.params.Page = DefaultPage
	a.items = nil
	a.pagination = nil
	a.gen++
	gen, params := a.gen, a.params
	a.mu.Unlock()

	a.fetch(ctx, gen, params)
}

// Refresh refetches page 1 with the current params.
func (a *Accumulator[T]) Refresh(ctx context.Context) {
	a.UpdateParams(ctx, nil)
}

// LoadMore fetches the page after the last one loaded and appends it.
// It is a no-op when nothing is loaded yet or the last page was reached.
func (a *Accumulator[T]) LoadMore(ctx context.Context) {
	a.mu.Lock()
	if !a.hasMoreLocked() {
		a.mu.Unlock()
		return
	}
	a.params.Page = a.pagination.Page + 1
	a.gen++
	gen, params := a.gen, a.params
	a.mu.Unlock()

	a.fetch(ctx, gen, params)
}

// HasMore reports whether another page is available.
func (a *Accumulator[T]) HasMore() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasMoreLocked()
}

// Params returns the current params.
func (a *Accumulator[T]) Params() PageParams {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params.With(nil)
}

// Snapshot returns a copy of the accumulated state.
func (a *Accumulator[T]) Snapshot() AccumulatedSet[T] {
	st := a.exec.State()

	a.mu.Lock()
	defer a.mu.Unlock()

	set := AccumulatedSet[T]{
		Items:   append([]T(nil), a.items...),
		Params:  a.params.With(nil),
		Status:  st.Status,
		Err:     st.Err,
		HasMore: a.hasMoreLocked(),
	}
	if a.pagination != nil {
		p := *a.pagination
		set.Pagination = &p
	}
	return set
}

func (a *Accumulator[T]) hasMoreLocked() bool {
	return a.pagination != nil && a.pagination.Page < a.pagination.TotalPages
}

func (a *Accumulator[T]) fetch(ctx context.Context, gen uint64, params PageParams) {
	page, err := a.exec.Execute(ctx, params)
	if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrAbandoned) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	if err != nil {
		return
	}

	info := NewPaginationInfo(page.Pagination.Page, page.Pagination.Limit, page.Pagination.Total)
	if info.Page < 1 {
		info.Page = params.Page
	}
	if params.Page == DefaultPage {
		a.items = append([]T(nil), page.Items...)
	} else {
		a.items = append(a.items, page.Items...)
	}
	a.pagination = &info
}
