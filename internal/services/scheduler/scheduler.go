package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultSchedule = "0 6 * * *"

type Sweeper interface {
	SweepStaleShipments(ctx context.Context, staleness time.Duration) (*shipments.SweepReport, error)
}

// Scheduler runs stale-shipment sweeps on a cron schedule and on demand.
// Sweeps never overlap: cron ticks and triggers only queue a run for the
// single loop in Run, and a tick that arrives while one is queued is dropped.
type Scheduler struct {
	sweeper   Sweeper
	staleness time.Duration
	log       *zap.Logger

	cron    *cron.Cron
	entry   cron.EntryID
	queueCh chan struct{}

	startedAtUnixNano   int64
	lastRunUnixNano     atomic.Int64
	lastTriggerUnixNano atomic.Int64
	runs                atomic.Int64
	updated             atomic.Int64
	failed              atomic.Int64
	running             atomic.Bool

	mu         sync.Mutex
	lastError  string
	lastReport *shipments.SweepReport
}

// New parses schedule as a standard five-field cron expression evaluated in UTC.
func New(sweeper Sweeper, schedule string, staleness time.Duration, log *zap.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if staleness <= 0 {
		staleness = shipments.DefaultStaleness
	}
	if log == nil {
		log = zap.NewNop()
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, errors.Wrap(err, "parse sweep schedule")
	}

	s := &Scheduler{
		sweeper:           sweeper,
		staleness:         staleness,
		log:               log,
		cron:              cron.New(cron.WithLocation(time.UTC)),
		queueCh:           make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
	s.entry = s.cron.Schedule(sched, cron.FuncJob(s.enqueue))
	return s, nil
}

// Trigger forces a sweep (best-effort, non-blocking).
func (s *Scheduler) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	s.enqueue()
}

func (s *Scheduler) enqueue() {
	select {
	case s.queueCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	defer s.cron.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.queueCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.running.Store(true)
	defer s.running.Store(false)
	s.lastRunUnixNano.Store(time.Now().UTC().UnixNano())
	s.runs.Add(1)

	rep, err := s.sweeper.SweepStaleShipments(ctx, s.staleness)
	if err != nil {
		s.log.Error("sweep stale shipments", zap.Error(err))
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return
	}

	s.updated.Add(int64(rep.Count(shipments.OutcomeUpdated)))
	s.failed.Add(int64(rep.Count(shipments.OutcomeFailed)))
	s.mu.Lock()
	s.lastReport = rep
	s.lastError = ""
	s.mu.Unlock()
}

type Stats struct {
	StartedAt     time.Time              `json:"startedAt"`
	LastRunAt     *time.Time             `json:"lastRunAt,omitempty"`
	LastTriggerAt *time.Time             `json:"lastTriggerAt,omitempty"`
	NextRunAt     *time.Time             `json:"nextRunAt,omitempty"`
	Runs          int64                  `json:"runs"`
	TotalUpdated  int64                  `json:"totalUpdated"`
	TotalFailed   int64                  `json:"totalFailed"`
	Running       bool                   `json:"running"`
	LastError     string                 `json:"lastError,omitempty"`
	LastReport    *shipments.SweepReport `json:"lastReport,omitempty"`
}

func (s *Scheduler) Stats() Stats {
	st := Stats{
		StartedAt:    time.Unix(0, s.startedAtUnixNano).UTC(),
		Runs:         s.runs.Load(),
		TotalUpdated: s.updated.Load(),
		TotalFailed:  s.failed.Load(),
		Running:      s.running.Load(),
	}
	if n := s.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
		st.NextRunAt = &next
	}
	s.mu.Lock()
	st.LastError = s.lastError
	st.LastReport = s.lastReport
	s.mu.Unlock()
	return st
}
