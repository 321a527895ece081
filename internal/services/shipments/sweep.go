package shipments

import (
	"context"
	"time"

	"github.com/BearBump/RetailDesk/internal/broker/messages"
	"github.com/BearBump/RetailDesk/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultStaleness   = 24 * time.Hour
	NothingToDoMessage = "No shipments to update"
)

type Outcome string

const (
	OutcomeUpdated Outcome = "Updated"
	OutcomeFailed  Outcome = "Failed"
)

type SweepResult struct {
	ID     string  `json:"id"`
	Status Outcome `json:"status"`
	Error  string  `json:"error,omitempty"`
}

// SweepReport is either NothingToDo with Message set, or one result per
// selected shipment in selection order.
type SweepReport struct {
	NothingToDo bool          `json:"nothing_to_do"`
	Message     string        `json:"message,omitempty"`
	Results     []SweepResult `json:"results,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

func (r *SweepReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == o {
			n++
		}
	}
	return n
}

// SweepStaleShipments refreshes every undelivered shipment last checked more
// than staleness ago. Rows are processed one at a time; a failure on one row
// is recorded and the sweep moves on.
func (s *Service) SweepStaleShipments(ctx context.Context, staleness time.Duration) (*SweepReport, error) {
	if staleness <= 0 {
		staleness = DefaultStaleness
	}
	started := s.now().UTC()
	defer func() { s.metrics.ObserveSweepDuration(s.now().Sub(started)) }()

	rows, err := s.repo.ListStaleShipments(ctx, started.Add(-staleness))
	if err != nil {
		return nil, storeError(err)
	}

	report := &SweepReport{StartedAt: started}
	if len(rows) == 0 {
		report.NothingToDo = true
		report.Message = NothingToDoMessage
		report.FinishedAt = s.now().UTC()
		return report, nil
	}

	report.Results = make([]SweepResult, 0, len(rows))
	for _, row := range rows {
		res := SweepResult{ID: row.ID, Status: OutcomeUpdated}
		if err := s.sweepOne(ctx, row); err != nil {
			res.Status = OutcomeFailed
			res.Error = err.Error()
			s.log.Warn("sweep shipment failed", zap.String("shipment_id", row.ID), zap.Error(err))
		}
		s.metrics.ObserveSweepOutcome(string(res.Status))
		report.Results = append(report.Results, res)
	}
	report.FinishedAt = s.now().UTC()

	s.log.Info("sweep finished",
		zap.Int("selected", len(rows)),
		zap.Int("updated", report.Count(OutcomeUpdated)),
		zap.Int("failed", report.Count(OutcomeFailed)))
	return report, nil
}

// sweepOne always stores the new snapshot. Status text is only replaced when
// the carrier supplied one, so a sweep never overwrites a real status with
// the fallback literal. Delivered is sticky at the store, so passing false is safe.
func (s *Service) sweepOne(ctx context.Context, row *models.TrackedShipment) error {
	raw, err := s.fetch(ctx, row.Pin)
	if err != nil {
		return err
	}
	st := Normalize(raw, row.Status)
	now := s.now().UTC()

	upd := models.ShipmentUpdate{Details: raw, Delivered: &st.Delivered, LastCheckedAt: now}
	if st.FromCarrier {
		upd.Status = &st.Text
	}

	ok, err := s.repo.UpdateShipment(ctx, row.ID, row.UserID, upd)
	if err != nil {
		return storeError(err)
	}
	if !ok {
		return ErrNotFound
	}

	s.afterWrite(ctx, row.ID, row.UserID, row.Pin, st, messages.SourceSweep, now)
	return nil
}
