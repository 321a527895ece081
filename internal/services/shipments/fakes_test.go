package shipments

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
)

// fakeRepo mirrors the SQL semantics of pgstore, including sticky delivered.
type fakeRepo struct {
	mu      sync.Mutex
	rows    []*models.TrackedShipment
	nextID  int
	inserts int
	updates int

	listErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{} }

func clone(sh *models.TrackedShipment) *models.TrackedShipment {
	c := *sh
	if sh.LastCheckedAt != nil {
		t := *sh.LastCheckedAt
		c.LastCheckedAt = &t
	}
	return &c
}

func (r *fakeRepo) seed(userID, pin, status string, lastChecked time.Time) *models.TrackedShipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	lc := lastChecked
	sh := &models.TrackedShipment{
		ID: "sh-" + strconv.Itoa(r.nextID), UserID: userID, Pin: pin, Status: status,
		LastCheckedAt: &lc, CreatedAt: lastChecked,
	}
	r.rows = append(r.rows, sh)
	return clone(sh)
}

func (r *fakeRepo) setChecked(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.ID == id {
			sh.LastCheckedAt = &at
		}
	}
}

func (r *fakeRepo) get(id string) *models.TrackedShipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.ID == id {
			return clone(sh)
		}
	}
	return nil
}

func (r *fakeRepo) FindShipmentByPinAndUser(_ context.Context, pin, userID string) (*models.TrackedShipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.Pin == pin && sh.UserID == userID {
			return clone(sh), nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetShipment(_ context.Context, id, userID string) (*models.TrackedShipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.ID == id && sh.UserID == userID {
			return clone(sh), nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) InsertShipment(_ context.Context, in models.ShipmentCreateInput) (*models.TrackedShipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.Pin == in.Pin && sh.UserID == in.UserID {
			return nil, pgstore.ErrDuplicate
		}
	}
	r.nextID++
	r.inserts++
	lc := in.LastCheckedAt
	sh := &models.TrackedShipment{
		ID: "sh-" + strconv.Itoa(r.nextID), UserID: in.UserID, Pin: in.Pin,
		Status: in.Status, Delivered: in.Delivered, Details: in.Details,
		LastCheckedAt: &lc, CreatedAt: in.LastCheckedAt,
	}
	r.rows = append(r.rows, sh)
	return clone(sh), nil
}

func (r *fakeRepo) UpdateShipment(_ context.Context, id, userID string, upd models.ShipmentUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sh := range r.rows {
		if sh.ID != id || sh.UserID != userID {
			continue
		}
		r.updates++
		if upd.Status != nil {
			sh.Status = *upd.Status
		}
		if upd.Delivered != nil {
			sh.Delivered = sh.Delivered || *upd.Delivered
		}
		if upd.Details != nil {
			sh.Details = upd.Details
		}
		lc := upd.LastCheckedAt
		sh.LastCheckedAt = &lc
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) ListStaleShipments(_ context.Context, olderThan time.Time) ([]*models.TrackedShipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.TrackedShipment
	for _, sh := range r.rows {
		if !sh.Delivered && sh.LastCheckedAt != nil && sh.LastCheckedAt.Before(olderThan) {
			out = append(out, clone(sh))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastCheckedAt.Before(*out[j].LastCheckedAt) })
	return out, nil
}

func (r *fakeRepo) ListShipmentsByUser(_ context.Context, userID string) ([]*models.TrackedShipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TrackedShipment
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, clone(r.rows[i]))
		}
	}
	return out, nil
}

// fakeCarrier returns canned snapshots per PIN and counts calls.
type fakeCarrier struct {
	mu     sync.Mutex
	calls  []string
	byPin  map[string]string
	errPin map[string]error
}

func newFakeCarrier() *fakeCarrier {
	return &fakeCarrier{byPin: map[string]string{}, errPin: map[string]error{}}
}

func (c *fakeCarrier) GetShipmentStatus(_ context.Context, pin string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, pin)
	if err, ok := c.errPin[pin]; ok {
		return nil, err
	}
	if raw, ok := c.byPin[pin]; ok {
		return json.RawMessage(raw), nil
	}
	return json.RawMessage(`{"SearchResults":{"SearchResult":[]}}`), nil
}

func (c *fakeCarrier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
	err   error
	msgs  [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, value)
	return nil
}

func snapshot(code, description, lastEvent string) string {
	return `{"SearchResults":{"SearchResult":[{"Shipment":{"status":{"code":"` + code +
		`","description":"` + description + `"},"packages":{"package":[{"lastEvent":{"description":"` +
		lastEvent + `"}}]}}}]}}`
}

var errConnRefused = &carrier.Error{Kind: carrier.KindConnectionFailed, Err: errors.New("dial tcp: connection refused")}
