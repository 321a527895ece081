package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PUROLATOR_KEY", "k-123")
	t.Setenv("PUROLATOR_PASSWORD", "secret")

	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  shipment_updated_topic_name: "shipment.updated"
redis:
  host: "localhost"
  port: 6379
carrier:
  mode: "purolator"
  endpoint: "https://devwebservices.purolator.com/EWS/V1/Tracking/TrackingService.asmx"
  key: "${PUROLATOR_KEY}"
  password: "${PUROLATOR_PASSWORD}"
retaildesk:
  http_addr: ":9090"
  sweep_staleness_hours: 12
  rate_limit_max_requests: 3
  trust_proxy_headers: true
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "shipment.updated", cfg.Kafka.ShipmentUpdatedTopicName)
	require.True(t, cfg.Kafka.Enabled())
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":9090", cfg.RetailDesk.HTTPAddr)
	require.Equal(t, "k-123", cfg.Carrier.Key)
	require.Equal(t, "secret", cfg.Carrier.Password)
	require.Equal(t, 12, cfg.RetailDesk.SweepStalenessHours)
	require.Equal(t, 3, cfg.RetailDesk.RateLimitMaxRequests)
	require.True(t, cfg.RetailDesk.TrustProxyHeaders)
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("database:\n  host: db\n"), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "disable", cfg.Database.SSLMode)
	require.Equal(t, "fake", cfg.Carrier.Mode)
	require.Equal(t, 24, cfg.RetailDesk.SweepStalenessHours)
	require.Equal(t, 300, cfg.RetailDesk.RateLimitWindowSeconds)
	require.Equal(t, 10, cfg.RetailDesk.RateLimitMaxRequests)
	require.Equal(t, 6*60*60, cfg.RetailDesk.CacheTTLSeconds)
	require.Equal(t, "memory", cfg.RetailDesk.CacheBackend)
	require.False(t, cfg.Kafka.Enabled())
	require.False(t, cfg.RetailDesk.TrustProxyHeaders)
}

func TestLoadConfig_PurolatorEndpointDefault(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("carrier:\n  mode: purolator\n"), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, DefaultPurolatorEndpoint, cfg.Carrier.Endpoint)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, Username: "u", Password: "p@ss", DBName: "retail", SSLMode: "disable"}
	require.Equal(t, "postgres://u:p%40ss@h:5432/retail?sslmode=disable", d.DSN())
}

func TestLoadConfig_Example(t *testing.T) {
	t.Setenv("PUROLATOR_KEY", "k")
	cfg, err := LoadConfig("config.example.yaml")
	require.NoError(t, err)
	require.Equal(t, "purolator", cfg.Carrier.Mode)
	require.Equal(t, "k", cfg.Carrier.Key)
	require.Equal(t, "0 6 * * *", cfg.RetailDesk.SweepSchedule)
	require.Equal(t, 21600, cfg.RetailDesk.CacheTTLSeconds)
}
