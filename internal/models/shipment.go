package models

import (
	"encoding/json"
	"time"
)

// TrackedShipment is one carrier PIN tracked by one user.
type TrackedShipment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Pin           string          `json:"pin"`
	Status        string          `json:"status"`
	Delivered     bool            `json:"delivered"`
	Details       json.RawMessage `json:"details,omitempty"`
	LastCheckedAt *time.Time      `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ShipmentCreateInput struct {
	UserID        string
	Pin           string
	Status        string
	Delivered     bool
	Details       json.RawMessage
	LastCheckedAt time.Time
}

// ShipmentUpdate is a partial update. Nil fields are left untouched.
// Delivered only ever moves false -> true at the store.
type ShipmentUpdate struct {
	Status        *string
	Delivered     *bool
	Details       json.RawMessage
	LastCheckedAt time.Time
}
