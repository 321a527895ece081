package shipments

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyTracked     = errors.New("shipment already tracked")
	ErrNotFound           = errors.New("shipment not found")
	ErrCarrierUnavailable = errors.New("carrier unavailable")
	ErrStore              = errors.New("shipment store error")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func carrierUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrCarrierUnavailable, err)
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
