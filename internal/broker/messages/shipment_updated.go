package messages

import "time"

const (
	SourceAdd     = "add"
	SourceRefresh = "refresh"
	SourceSweep   = "sweep"
)

// ShipmentUpdated is published after a shipment row is written with a fresh
// carrier snapshot. Consumers use it to drop cached per-user lists.
type ShipmentUpdated struct {
	ShipmentID string    `json:"shipment_id"`
	UserID     string    `json:"user_id"`
	Pin        string    `json:"pin"`
	Status     string    `json:"status"`
	Delivered  bool      `json:"delivered"`
	Source     string    `json:"source"`
	CheckedAt  time.Time `json:"checked_at"`
}
