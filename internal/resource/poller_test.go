package resource

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder[T any] struct {
	mu     sync.Mutex
	states []State[T]
}

func (r *recorder[T]) record(s State[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *recorder[T]) last() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}

func TestPoller_FetchesImmediatelyAndRepeats(t *testing.T) {
	var n atomic.Int32
	rec := &recorder[int32]{}
	p := NewPoller(func(context.Context) (Result[int32], error) {
		return OK(n.Add(1)), nil
	}, WithInterval[int32](5*time.Millisecond), WithOnResult(rec.record))

	p.Start(context.Background())
	defer p.Stop()

	assert.True(t, p.IsPolling())
	assert.Eventually(t, func() bool { return rec.count() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusSuccess, rec.last().Status)
	assert.Equal(t, StatusSuccess, p.State().Status)
}

func TestPoller_StartIsIdempotent(t *testing.T) {
	var n atomic.Int32
	p := NewPoller(func(context.Context) (Result[int], error) {
		n.Add(1)
		return OK(1), nil
	}, WithInterval[int](time.Hour))

	p.Start(context.Background())
	p.Start(context.Background())
	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	p.Stop()
	assert.Equal(t, int32(1), n.Load())
	assert.False(t, p.IsPolling())
}

func TestPoller_NoDeliveryAfterStop(t *testing.T) {
	entered := make(chan struct{}, 1)
	rec := &recorder[int]{}
	p := NewPoller(func(ctx context.Context) (Result[int], error) {
		entered <- struct{}{}
		<-ctx.Done()
		return Result[int]{}, ctx.Err()
	}, WithOnResult(rec.record))

	p.Start(context.Background())
	<-entered
	p.Stop()

	assert.Zero(t, rec.count())
	assert.False(t, p.IsPolling())
	assert.Equal(t, StatusIdle, p.State().Status)
}

func TestPoller_StopWithoutStart(t *testing.T) {
	p := NewPoller(func(context.Context) (Result[int], error) { return OK(1), nil })
	p.Stop()
	assert.False(t, p.IsPolling())
}

func TestPoller_ErrorsDoNotStopCadence(t *testing.T) {
	var n atomic.Int32
	var buf bytes.Buffer
	rec := &recorder[int]{}
	p := NewPoller(func(context.Context) (Result[int], error) {
		n.Add(1)
		return Result[int]{}, errors.New("health endpoint down")
	},
		WithInterval[int](5*time.Millisecond),
		WithLogger[int](zerolog.New(&syncWriter{w: &buf})),
		WithOnResult(rec.record),
	)

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	assert.Equal(t, StatusError, rec.last().Status)
	assert.Equal(t, "health endpoint down", rec.last().Err)
	assert.Contains(t, buf.String(), "poll fetch failed")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestPoller_ParentContextEndsPolling(t *testing.T) {
	p := NewPoller(func(context.Context) (Result[int], error) { return OK(1), nil },
		WithInterval[int](time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	assert.Eventually(t, func() bool { return !p.IsPolling() }, time.Second, time.Millisecond)
	p.Stop()
}

func TestPoller_RefreshWithoutStart(t *testing.T) {
	rec := &recorder[string]{}
	p := NewPoller(func(context.Context) (Result[string], error) {
		return OK("healthy"), nil
	}, WithOnResult(rec.record))

	p.Refresh(context.Background())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "healthy", rec.last().Data)
	assert.False(t, p.IsPolling())
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// TestPoller_RefreshWinsOverInFlightPoll verifies a manual refresh issued
// while a poll is pending is the one that lands.
func TestPoller_RefreshWinsOverInFlightPoll(t *testing.T) {
	var n atomic.Int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	rec := &recorder[int32]{}
	p := NewPoller(func(context.Context) (Result[int32], error) {
		call := n.Add(1)
		if call == 1 {
			entered <- struct{}{}
			<-release
		}
		return OK(call), nil
	}, WithInterval[int32](time.Hour), WithOnResult(rec.record))

	p.Start(context.Background())
	<-entered

	p.Refresh(context.Background())
	close(release)
	p.Stop()

	require.Equal(t, 1, rec.count())
	assert.Equal(t, int32(2), rec.last().Data)
	assert.Equal(t, StatusSuccess, p.State().Status)
	assert.Equal(t, int32(2), p.State().Data)
}

// TestPoller_StopDiscardsPendingRefresh verifies a refresh still in flight
// when Stop is called never shows up in State.
func TestPoller_StopDiscardsPendingRefresh(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	rec := &recorder[string]{}
	p := NewPoller(func(context.Context) (Result[string], error) {
		entered <- struct{}{}
		<-release
		return OK("late"), nil
	}, WithOnResult(rec.record))

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Refresh(context.Background())
	}()
	<-entered
	p.Stop()
	close(release)
	<-done

	assert.Zero(t, rec.count())
	assert.Equal(t, StatusIdle, p.State().Status)
}

func TestPoller_CallbackPanicKeepsPolling(t *testing.T) {
	var n atomic.Int32
	var buf bytes.Buffer
	p := NewPoller(func(context.Context) (Result[int32], error) {
		return OK(n.Add(1)), nil
	},
		WithInterval[int32](5*time.Millisecond),
		WithLogger[int32](zerolog.New(&syncWriter{w: &buf})),
		WithOnResult(func(State[int32]) { panic("render bug") }),
	)

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	assert.Contains(t, buf.String(), "onResult callback panicked: render bug")
}
