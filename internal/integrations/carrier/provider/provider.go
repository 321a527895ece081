package provider

import (
	"time"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/emulator"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/fake"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/purolator"
)

const (
	ModePurolator = "purolator"
	ModeEmulator  = "emulator"
	ModeFake      = "fake"
)

// New picks the carrier client for cfg.Mode. Unknown modes, and the emulator
// without a base URL, fall back to the local fake.
func New(cfg config.CarrierConfig) carrier.Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Mode {
	case ModePurolator:
		return purolator.New(purolatorEndpoint(cfg), cfg.Key, cfg.Password, timeout)
	case ModeEmulator:
		if cfg.EmulatorBaseURL != "" {
			return emulator.New(cfg.EmulatorBaseURL, cfg.Key, timeout)
		}
	}
	return fake.New()
}

func purolatorEndpoint(cfg config.CarrierConfig) string {
	if cfg.Endpoint == "" {
		return config.DefaultPurolatorEndpoint
	}
	return cfg.Endpoint
}
