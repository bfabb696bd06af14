package resource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is the cadence used when no interval is configured.
const DefaultPollInterval = 5 * time.Second

// PollerOption configures a Poller.
type PollerOption[T any] func(*Poller[T])

// WithInterval sets the polling cadence. Non-positive values keep the default.
func WithInterval[T any](d time.Duration) PollerOption[T] {
	return func(p *Poller[T]) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger[T any](log zerolog.Logger) PollerOption[T] {
	return func(p *Poller[T]) { p.log = log }
}

// WithOnResult registers a callback receiving every committed state.
// The callback runs on the polling goroutine and must not call Stop.
func WithOnResult[T any](fn func(State[T])) PollerOption[T] {
	return func(p *Poller[T]) { p.onResult = fn }
}

// Poller re-issues a fetch on a fixed cadence through an Executor.
type Poller[T any] struct {
	exec     *Executor[struct{}, T]
	interval time.Duration
	log      zerolog.Logger
	onResult func(State[T])

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	gen    uint64

	// held while a result is delivered so Stop can wait it out
	deliver sync.Mutex
}

// NewPoller creates a stopped Poller for fetch.
func NewPoller[T any](fetch func(ctx context.Context) (Result[T], error), opts ...PollerOption[T]) *Poller[T] {
	p := &Poller[T]{
		exec: NewExecutor(Call[struct{}, T](func(ctx context.Context, _ struct{}) (Result[T], error) {
			return fetch(ctx)
		})),
		interval: DefaultPollInterval,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start fetches immediately and then every interval until Stop is called or
// ctx is done. Calling Start while polling is a no-op.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.gen++
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.loop(pollCtx, p.gen, p.done)
}

// Stop cancels the recurrence. A fetch in flight may still complete but its
// result is neither delivered nor visible through State: a pending fetch,
// including a Refresh issued with its own ctx, is discarded and State goes
// back to Idle.
//
// Stop returns once the polling goroutine exited, so it blocks for as long
// as an in-flight fetch that ignores its ctx keeps running.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	p.gen++
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	p.exec.resetIfLoading()
	if cancel == nil {
		return
	}
	cancel()
	<-done

	// wait out a Refresh delivery that passed the generation check
	p.deliver.Lock()
	p.deliver.Unlock()
}

// Refresh issues one fetch outside the cadence. The most recently issued
// fetch wins over any poll already in flight.
func (p *Poller[T]) Refresh(ctx context.Context) {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.fetch(ctx, gen)
}

// IsPolling reports whether the cadence is active.
func (p *Poller[T]) IsPolling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// State returns the executor state of the last fetch.
func (p *Poller[T]) State() State[T] {
	return p.exec.State()
}

func (p *Poller[T]) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		if p.gen == gen {
			p.cancel, p.done = nil, nil
		}
		p.mu.Unlock()
	}()

	p.fetch(ctx, gen)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, gen)
		}
	}
}

func (p *Poller[T]) fetch(ctx context.Context, gen uint64) {
	_, err := p.exec.Execute(ctx, struct{}{})
	if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrAbandoned) {
		return
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("poll fetch failed")
	}

	p.deliver.Lock()
	defer p.deliver.Unlock()

	p.mu.Lock()
	current := p.gen == gen
	p.mu.Unlock()
	if !current || p.onResult == nil {
		return
	}
	if err := protect("onResult callback", func() { p.onResult(p.exec.State()) }); err != nil {
		p.log.Error().Err(err).Msg("poll result callback failed")
	}
}
