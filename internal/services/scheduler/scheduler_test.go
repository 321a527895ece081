package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	calls     atomic.Int64
	staleness atomic.Int64
	err       error
	done      chan struct{}
}

func newFakeSweeper() *fakeSweeper { return &fakeSweeper{done: make(chan struct{}, 10)} }

func (f *fakeSweeper) SweepStaleShipments(_ context.Context, staleness time.Duration) (*shipments.SweepReport, error) {
	f.calls.Add(1)
	f.staleness.Store(int64(staleness))
	defer func() { f.done <- struct{}{} }()
	if f.err != nil {
		return nil, f.err
	}
	return &shipments.SweepReport{Results: []shipments.SweepResult{
		{ID: "a", Status: shipments.OutcomeUpdated},
		{ID: "b", Status: shipments.OutcomeFailed, Error: "boom"},
		{ID: "c", Status: shipments.OutcomeUpdated},
	}}, nil
}

func waitSweep(t *testing.T, f *fakeSweeper) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
	}
}

func TestScheduler_TriggerRunsSweep(t *testing.T) {
	sw := newFakeSweeper()
	s, err := New(sw, "", 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	s.Trigger()
	waitSweep(t, sw)

	require.Eventually(t, func() bool { return s.Stats().Runs == 1 && !s.Stats().Running }, time.Second, 5*time.Millisecond)
	st := s.Stats()
	require.EqualValues(t, 2, st.TotalUpdated)
	require.EqualValues(t, 1, st.TotalFailed)
	require.NotNil(t, st.LastRunAt)
	require.NotNil(t, st.LastTriggerAt)
	require.NotNil(t, st.NextRunAt)
	require.NotNil(t, st.LastReport)
	require.Empty(t, st.LastError)
	require.Equal(t, int64(shipments.DefaultStaleness), sw.staleness.Load())

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestScheduler_RecordsSweepError(t *testing.T) {
	sw := newFakeSweeper()
	sw.err = errors.New("store down")
	s, err := New(sw, "*/5 * * * *", 12*time.Hour, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	s.Trigger()
	waitSweep(t, sw)
	require.Eventually(t, func() bool { return s.Stats().LastError == "store down" }, time.Second, 5*time.Millisecond)
	require.Equal(t, int64(12*time.Hour), sw.staleness.Load())
}

func TestScheduler_TriggersCoalesce(t *testing.T) {
	sw := newFakeSweeper()
	s, err := New(sw, "", 0, nil)
	require.NoError(t, err)

	// Without a running loop only one run can be queued.
	s.Trigger()
	s.Trigger()
	s.Trigger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	waitSweep(t, sw)
	require.Never(t, func() bool { return sw.calls.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New(newFakeSweeper(), "not a cron", 0, nil)
	require.Error(t, err)
}
