package pgstore

import (
	"context"
	"time"

	"github.com/BearBump/RetailDesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const shipmentColumns = `id, user_id, pin, status, delivered, details, last_checked_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner) (*models.TrackedShipment, error) {
	var sh models.TrackedShipment
	var details []byte
	if err := row.Scan(
		&sh.ID, &sh.UserID, &sh.Pin,
		&sh.Status, &sh.Delivered, &details,
		&sh.LastCheckedAt, &sh.CreatedAt,
	); err != nil {
		return nil, err
	}
	sh.Details = details
	return &sh, nil
}

func (s *Storage) FindShipmentByPinAndUser(ctx context.Context, pin, userID string) (*models.TrackedShipment, error) {
	row := s.db.QueryRow(ctx, `
SELECT `+shipmentColumns+`
FROM user_shipments
WHERE pin = $1 AND user_id = $2
`, pin, userID)

	sh, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment by pin")
	}
	return sh, nil
}

// GetShipment returns the row only when it belongs to userID.
func (s *Storage) GetShipment(ctx context.Context, id, userID string) (*models.TrackedShipment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := s.db.QueryRow(ctx, `
SELECT `+shipmentColumns+`
FROM user_shipments
WHERE id = $1 AND user_id = $2
`, id, userID)

	sh, err := scanShipment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return sh, nil
}

func (s *Storage) InsertShipment(ctx context.Context, in models.ShipmentCreateInput) (*models.TrackedShipment, error) {
	row := s.db.QueryRow(ctx, `
INSERT INTO user_shipments (
  id, user_id, pin, status, delivered, details, last_checked_at, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,now())
RETURNING `+shipmentColumns,
		uuid.NewString(), in.UserID, in.Pin, in.Status, in.Delivered, []byte(in.Details), in.LastCheckedAt.UTC())

	sh, err := scanShipment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert shipment")
	}
	return sh, nil
}

// UpdateShipment applies upd to the row owned by userID. Delivered is sticky:
// once true it is never reset. Returns false when no row matched.
func (s *Storage) UpdateShipment(ctx context.Context, id, userID string, upd models.ShipmentUpdate) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	tag, err := s.db.Exec(ctx, `
UPDATE user_shipments SET
  status = COALESCE($3, status),
  delivered = delivered OR COALESCE($4, false),
  details = COALESCE($5, details),
  last_checked_at = $6
WHERE id = $1 AND user_id = $2
`, id, userID, upd.Status, upd.Delivered, []byte(upd.Details), upd.LastCheckedAt.UTC())
	if err != nil {
		return false, errors.Wrap(err, "update shipment")
	}
	return tag.RowsAffected() > 0, nil
}

// ListStaleShipments returns undelivered rows last checked before olderThan,
// oldest first.
func (s *Storage) ListStaleShipments(ctx context.Context, olderThan time.Time) ([]*models.TrackedShipment, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+shipmentColumns+`
FROM user_shipments
WHERE delivered = false AND last_checked_at < $1
ORDER BY last_checked_at ASC
`, olderThan.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "select stale shipments")
	}
	return collectShipments(rows)
}

func (s *Storage) ListShipmentsByUser(ctx context.Context, userID string) ([]*models.TrackedShipment, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+shipmentColumns+`
FROM user_shipments
WHERE user_id = $1
ORDER BY created_at DESC
`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "select user shipments")
	}
	return collectShipments(rows)
}

func collectShipments(rows pgx.Rows) ([]*models.TrackedShipment, error) {
	defer rows.Close()

	out := make([]*models.TrackedShipment, 0)
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
