package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lead struct {
	ID     string
	Status string
}

func setStatus(confirmed lead, status string) (lead, bool) {
	confirmed.Status = status
	return confirmed, true
}

type gatedStatusCall struct {
	entered chan string
	release chan error
}

func newGatedStatusCall() *gatedStatusCall {
	return &gatedStatusCall{entered: make(chan string, 4), release: make(chan error)}
}

func (g *gatedStatusCall) call(_ context.Context, status string) (Result[lead], error) {
	g.entered <- status
	if err := <-g.release; err != nil {
		return Result[lead]{}, err
	}
	return OK(lead{ID: "1", Status: status}), nil
}

func TestOverlay_SpeculativeThenConfirmed(t *testing.T) {
	gate := newGatedStatusCall()
	o := NewOverlay(gate.call, setStatus, lead{ID: "1", Status: "New"})

	done := make(chan error)
	go func() {
		_, err := o.Execute(context.Background(), "Contacted")
		done <- err
	}()
	<-gate.entered

	v := o.View()
	assert.True(t, v.Optimistic)
	assert.Equal(t, "Contacted", v.Visible.Status)
	assert.Equal(t, StatusLoading, v.Status)

	gate.release <- nil
	require.NoError(t, <-done)

	v = o.View()
	assert.False(t, v.Optimistic)
	assert.Equal(t, "Contacted", v.Visible.Status)
	assert.Equal(t, StatusSuccess, v.Status)
}

func TestOverlay_FailureRevertsToConfirmed(t *testing.T) {
	gate := newGatedStatusCall()
	var failures []string
	o := NewOverlay(gate.call, setStatus, lead{ID: "1", Status: "New"},
		WithOnError[lead](func(msg string) { failures = append(failures, msg) }))

	done := make(chan error)
	go func() {
		_, err := o.Execute(context.Background(), "Won")
		done <- err
	}()
	<-gate.entered
	assert.Equal(t, "Won", o.View().Visible.Status)

	gate.release <- errors.New("status rejected")
	assert.EqualError(t, <-done, "status rejected")

	v := o.View()
	assert.False(t, v.Optimistic)
	assert.Equal(t, "New", v.Visible.Status)
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, "status rejected", v.Err)
	assert.Equal(t, []string{"status rejected"}, failures)
}

func TestOverlay_UpdateCanDecline(t *testing.T) {
	o := NewOverlay(Call[string, lead](func(_ context.Context, s string) (Result[lead], error) {
		return OK(lead{ID: "1", Status: s}), nil
	}), func(confirmed lead, _ string) (lead, bool) {
		return confirmed, false
	}, lead{ID: "1", Status: "New"})

	_, err := o.Execute(context.Background(), "Lost")
	require.NoError(t, err)
	assert.Equal(t, "Lost", o.View().Visible.Status)
}

func TestOverlay_NewerExecuteKeepsItsSpeculation(t *testing.T) {
	gate := newGatedStatusCall()
	o := NewOverlay(gate.call, setStatus, lead{ID: "1", Status: "New"})
	ctx := context.Background()

	first := make(chan error)
	go func() {
		_, err := o.Execute(ctx, "Contacted")
		first <- err
	}()
	require.Equal(t, "Contacted", <-gate.entered)

	second := make(chan error)
	go func() {
		_, err := o.Execute(ctx, "Engaged")
		second <- err
	}()
	require.Equal(t, "Engaged", <-gate.entered)

	assert.Equal(t, "Engaged", o.View().Visible.Status)

	// settle both; only the newer one can confirm
	gate.release <- nil
	gate.release <- nil
	errs := []error{<-first, <-second}

	var superseded int
	for _, err := range errs {
		if errors.Is(err, ErrSuperseded) {
			superseded++
		}
	}
	assert.Equal(t, 1, superseded)
	v := o.View()
	assert.False(t, v.Optimistic)
	assert.Equal(t, StatusSuccess, v.Status)
}

func TestOverlay_SetConfirmedAndReset(t *testing.T) {
	o := NewOverlay(Call[string, lead](func(context.Context, string) (Result[lead], error) {
		return Fail[lead]("nope"), nil
	}), setStatus, lead{})

	o.SetConfirmed(lead{ID: "7", Status: "Qualified"})
	_, err := o.Execute(context.Background(), "Won")

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Qualified", o.View().Visible.Status)

	o.Reset()
	assert.Equal(t, StatusIdle, o.View().Status)
}

// TestOverlay_UpdatePanicBecomesError verifies a panicking update records an
// Error state, skips the call and leaves the overlay usable.
func TestOverlay_UpdatePanicBecomesError(t *testing.T) {
	called := false
	var errs []string
	o := NewOverlay(Call[string, lead](func(_ context.Context, status string) (Result[lead], error) {
		called = true
		return OK(lead{ID: "1", Status: status}), nil
	}), func(lead, string) (lead, bool) {
		panic("bad guess")
	}, lead{ID: "1", Status: "New"}, WithOnError[lead](func(msg string) { errs = append(errs, msg) }))

	var err error
	require.NotPanics(t, func() { _, err = o.Execute(context.Background(), "Won") })

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad guess", pe.Value)
	assert.False(t, called)

	viewed := make(chan OverlayState[lead], 1)
	go func() { viewed <- o.View() }()
	select {
	case v := <-viewed:
		assert.False(t, v.Optimistic)
		assert.Equal(t, "New", v.Visible.Status)
		assert.Equal(t, StatusError, v.Status)
		assert.Equal(t, "overlay update panicked: bad guess", v.Err)
	case <-time.After(time.Second):
		t.Fatal("View blocked after a panicking update")
	}
	assert.Equal(t, []string{"overlay update panicked: bad guess"}, errs)

	o.SetConfirmed(lead{ID: "1", Status: "Qualified"})
	assert.Equal(t, "Qualified", o.View().Visible.Status)
}
