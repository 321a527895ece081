package shipments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BearBump/RetailDesk/internal/broker/messages"
	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

type Repository interface {
	FindShipmentByPinAndUser(ctx context.Context, pin, userID string) (*models.TrackedShipment, error)
	GetShipment(ctx context.Context, id, userID string) (*models.TrackedShipment, error)
	InsertShipment(ctx context.Context, in models.ShipmentCreateInput) (*models.TrackedShipment, error)
	UpdateShipment(ctx context.Context, id, userID string, upd models.ShipmentUpdate) (bool, error)
	ListStaleShipments(ctx context.Context, olderThan time.Time) ([]*models.TrackedShipment, error)
	ListShipmentsByUser(ctx context.Context, userID string) ([]*models.TrackedShipment, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service is the shipment sync engine: add, refresh and sweep.
type Service struct {
	repo    Repository
	carrier carrier.Client
	log     *zap.Logger
	metrics *metrics.Metrics

	cache   cache.BytesCache
	listTTL time.Duration

	// listGen counts invalidations per user so a list read that overlaps a
	// write does not cache the rows it saw before the write.
	genMu   sync.Mutex
	listGen map[string]uint64

	pub          Publisher
	topic        string
	publishTries uint
	newBackOff   func() backoff.BackOff

	now func() time.Time
}

func New(repo Repository, c carrier.Client, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		carrier:      c,
		log:          log,
		publishTries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			return b
		},
		now: time.Now,
	}
}

// WithCache enables caching of per-user shipment lists.
func (s *Service) WithCache(c cache.BytesCache, listTTL time.Duration) *Service {
	s.cache = c
	s.listTTL = listTTL
	return s
}

// WithPublisher enables shipment.updated events after every write.
func (s *Service) WithPublisher(p Publisher, topic string) *Service {
	s.pub = p
	s.topic = topic
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// AddShipment starts tracking pin for userID. A pin the user already tracks
// is rejected before the carrier is called.
func (s *Service) AddShipment(ctx context.Context, pin, userID string) (*models.TrackedShipment, error) {
	if userID == "" {
		return nil, invalidInput("user id is required")
	}
	pin, err := carrier.NormalizePin(pin)
	if err != nil {
		return nil, invalidInput(err.Error())
	}

	existing, err := s.repo.FindShipmentByPinAndUser(ctx, pin, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if existing != nil {
		return nil, ErrAlreadyTracked
	}

	raw, err := s.fetch(ctx, pin)
	if err != nil {
		return nil, err
	}
	st := Normalize(raw, FallbackAdd)
	now := s.now().UTC()

	row, err := s.repo.InsertShipment(ctx, models.ShipmentCreateInput{
		UserID:        userID,
		Pin:           pin,
		Status:        st.Text,
		Delivered:     st.Delivered,
		Details:       raw,
		LastCheckedAt: now,
	})
	if errors.Is(err, pgstore.ErrDuplicate) {
		return nil, ErrAlreadyTracked
	}
	if err != nil {
		return nil, storeError(err)
	}

	s.log.Info("shipment added",
		zap.String("shipment_id", row.ID), zap.String("user_id", userID),
		zap.String("status", st.Text), zap.Bool("delivered", st.Delivered))
	s.afterWrite(ctx, row.ID, userID, pin, st, messages.SourceAdd, now)
	return row, nil
}

// RefreshShipment re-fetches one shipment owned by userID and returns the raw
// carrier snapshot.
func (s *Service) RefreshShipment(ctx context.Context, id, userID string) (json.RawMessage, error) {
	if id == "" || userID == "" {
		return nil, ErrNotFound
	}

	row, err := s.repo.GetShipment(ctx, id, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if row == nil {
		return nil, ErrNotFound
	}

	raw, err := s.fetch(ctx, row.Pin)
	if err != nil {
		return nil, err
	}
	st := Normalize(raw, FallbackRefresh)
	now := s.now().UTC()

	ok, err := s.repo.UpdateShipment(ctx, id, userID, models.ShipmentUpdate{
		Status:        &st.Text,
		Delivered:     &st.Delivered,
		Details:       raw,
		LastCheckedAt: now,
	})
	if err != nil {
		return nil, storeError(err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.afterWrite(ctx, id, userID, row.Pin, st, messages.SourceRefresh, now)
	return raw, nil
}

// ListShipments returns the user's shipments, newest first.
func (s *Service) ListShipments(ctx context.Context, userID string) ([]*models.TrackedShipment, error) {
	if userID == "" {
		return nil, invalidInput("user id is required")
	}

	key := listKey(userID)
	if s.cache != nil && s.listTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var out []*models.TrackedShipment
			if json.Unmarshal(b, &out) == nil {
				return out, nil
			}
		}
	}

	gen := s.generation(userID)
	out, err := s.repo.ListShipmentsByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}

	if s.cache != nil && s.listTTL > 0 && s.generation(userID) == gen {
		if b, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, key, b, s.listTTL); err != nil {
				s.log.Warn("cache shipment list", zap.String("user_id", userID), zap.Error(err))
			}
			// a write may have landed between the check and Set
			if s.generation(userID) != gen {
				s.invalidate(ctx, userID)
			}
		}
	}
	return out, nil
}

// HandleShipmentUpdated drops the cached list of the event's owner. It is fed
// by the shipment.updated consumer so writes from other processes are seen.
func (s *Service) HandleShipmentUpdated(ctx context.Context, ev messages.ShipmentUpdated) error {
	if ev.UserID == "" {
		return nil
	}
	s.invalidate(ctx, ev.UserID)
	return nil
}

func (s *Service) fetch(ctx context.Context, pin string) (json.RawMessage, error) {
	raw, err := s.carrier.GetShipmentStatus(ctx, pin)
	if err != nil {
		kind := carrier.KindOf(err)
		if kind == "" {
			kind = carrier.KindOther
		}
		s.metrics.ObserveCarrier(string(kind))
		s.log.Warn("carrier status failed", zap.String("pin", pin), zap.String("kind", string(kind)), zap.Error(err))
		return nil, carrierUnavailable(err)
	}
	s.metrics.ObserveCarrier("ok")
	return raw, nil
}

func (s *Service) afterWrite(ctx context.Context, id, userID, pin string, st Status, source string, at time.Time) {
	s.invalidate(ctx, userID)
	s.publish(ctx, messages.ShipmentUpdated{
		ShipmentID: id,
		UserID:     userID,
		Pin:        pin,
		Status:     st.Text,
		Delivered:  st.Delivered,
		Source:     source,
		CheckedAt:  at,
	})
}

func (s *Service) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.listGen[userID]
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	if s.listGen == nil {
		s.listGen = make(map[string]uint64)
	}
	s.listGen[userID]++
	s.genMu.Unlock()
	if err := s.cache.Delete(ctx, listKey(userID)); err != nil {
		s.log.Warn("invalidate shipment list", zap.String("user_id", userID), zap.Error(err))
	}
}

// publish is best-effort: the row is already persisted, so a failed publish
// is logged and never returned.
func (s *Service) publish(ctx context.Context, ev messages.ShipmentUpdated) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("marshal shipment event", zap.String("shipment_id", ev.ShipmentID), zap.Error(err))
		return
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.pub.Publish(ctx, s.topic, []byte(ev.ShipmentID), b)
	}, backoff.WithBackOff(s.newBackOff()), backoff.WithMaxTries(s.publishTries))
	if err != nil {
		s.log.Error("publish shipment event", zap.String("shipment_id", ev.ShipmentID), zap.Error(err))
	}
}

func listKey(userID string) string {
	return fmt.Sprintf("shipments:%s:list", userID)
}
