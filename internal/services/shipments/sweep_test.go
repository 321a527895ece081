package shipments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSweep_PartialFailureContinues(t *testing.T) {
	repo, fc := newFakeRepo(), newFakeCarrier()
	old := testNow.Add(-48 * time.Hour)
	r1 := repo.seed("user-1", "1001", "In Transit", old)
	r2 := repo.seed("user-2", "1002", "In Transit", old.Add(time.Minute))
	r3 := repo.seed("user-1", "1003", "In Transit", old.Add(2*time.Minute))
	fc.byPin["1001"] = snapshot("ITR", "In Transit", "Out for delivery")
	fc.errPin["1002"] = errConnRefused
	fc.byPin["1003"] = snapshot("DLD", "Delivered", "")
	s := newTestService(repo, fc)

	rep, err := s.SweepStaleShipments(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.False(t, rep.NothingToDo)
	require.Len(t, rep.Results, 3)

	require.Equal(t, SweepResult{ID: r1.ID, Status: OutcomeUpdated}, rep.Results[0])
	require.Equal(t, r2.ID, rep.Results[1].ID)
	require.Equal(t, OutcomeFailed, rep.Results[1].Status)
	require.NotEmpty(t, rep.Results[1].Error)
	require.Equal(t, SweepResult{ID: r3.ID, Status: OutcomeUpdated}, rep.Results[2])
	require.Equal(t, 2, rep.Count(OutcomeUpdated))
	require.Equal(t, 1, rep.Count(OutcomeFailed))

	require.True(t, repo.get(r1.ID).LastCheckedAt.Equal(testNow))
	require.Equal(t, "Out for delivery", repo.get(r1.ID).Status)
	require.True(t, repo.get(r2.ID).LastCheckedAt.Equal(old.Add(time.Minute)))
	require.True(t, repo.get(r3.ID).LastCheckedAt.Equal(testNow))
	require.True(t, repo.get(r3.ID).Delivered)
	require.Equal(t, "Delivered", repo.get(r3.ID).Status)
}

func TestSweep_NothingToDo(t *testing.T) {
	repo, fc := newFakeRepo(), newFakeCarrier()
	repo.seed("user-1", "2001", "In Transit", testNow.Add(-time.Hour))
	s := newTestService(repo, fc)

	rep, err := s.SweepStaleShipments(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.True(t, rep.NothingToDo)
	require.Equal(t, "No shipments to update", rep.Message)
	require.Empty(t, rep.Results)
	require.Zero(t, fc.callCount())
}

func TestSweep_SkipsDeliveredAndDefaultsStaleness(t *testing.T) {
	repo, fc := newFakeRepo(), newFakeCarrier()
	delivered := repo.seed("user-1", "3001", "Delivered", testNow.Add(-72*time.Hour))
	fc.byPin["3001"] = snapshot("DLD", "Delivered", "")
	s := newTestService(repo, fc)
	_, err := s.RefreshShipment(context.Background(), delivered.ID, "user-1")
	require.NoError(t, err)
	repo.setChecked(delivered.ID, testNow.Add(-72*time.Hour))

	stale := repo.seed("user-1", "3002", "In Transit", testNow.Add(-25*time.Hour))
	repo.seed("user-1", "3003", "In Transit", testNow.Add(-23*time.Hour))

	rep, err := s.SweepStaleShipments(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	require.Equal(t, stale.ID, rep.Results[0].ID)
}

func TestSweep_KeepsStatusWhenCarrierHasNoData(t *testing.T) {
	repo, fc := newFakeRepo(), newFakeCarrier()
	r := repo.seed("user-1", "4001", "Arrived at sort facility", testNow.Add(-30*time.Hour))
	s := newTestService(repo, fc)

	rep, err := s.SweepStaleShipments(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, OutcomeUpdated, rep.Results[0].Status)
	require.Equal(t, "Arrived at sort facility", repo.get(r.ID).Status)
	require.True(t, repo.get(r.ID).LastCheckedAt.Equal(testNow))
}

func TestSweep_SelectionFailure(t *testing.T) {
	repo, fc := newFakeRepo(), newFakeCarrier()
	repo.listErr = errors.New("connection reset")
	s := newTestService(repo, fc)

	_, err := s.SweepStaleShipments(context.Background(), 24*time.Hour)
	require.ErrorIs(t, err, ErrStore)
}
