package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Carrier    CarrierConfig    `yaml:"carrier"`
	Auth       AuthConfig       `yaml:"auth"`
	RetailDesk RetailDeskConfig `yaml:"retaildesk"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN builds a postgres:// connection string for pgx.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ShipmentUpdatedTopicName string `yaml:"shipment_updated_topic_name"`
}

// Enabled reports whether a broker is configured at all.
func (k KafkaConfig) Enabled() bool {
	return k.Host != "" && k.Port != 0
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" | "json"
	File   string `yaml:"file"`
}

// DefaultPurolatorEndpoint is the production tracking service.
const DefaultPurolatorEndpoint = "https://webservices.purolator.com/EWS/V1/Tracking/TrackingService.asmx"

type CarrierConfig struct {
	Mode            string `yaml:"mode"` // "purolator" | "emulator" | "fake"
	Endpoint        string `yaml:"endpoint"`
	Key             string `yaml:"key"`
	Password        string `yaml:"password"`
	EmulatorBaseURL string `yaml:"emulator_base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type RetailDeskConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	SweepSchedule       string `yaml:"sweep_schedule"`
	SweepStalenessHours int    `yaml:"sweep_staleness_hours"`
	CronAPIKey          string `yaml:"cron_api_key"`

	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`
	RateLimitMaxRequests   int `yaml:"rate_limit_max_requests"`

	// Honor X-Forwarded-For / X-Real-IP for the limiter key. Enable only
	// behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	CacheBackend        string `yaml:"cache_backend"` // "memory" | "redis"
	CacheTTLSeconds     int    `yaml:"cache_ttl_seconds"`
	ListCacheTTLSeconds int    `yaml:"list_cache_ttl_seconds"`
}

// LoadConfig reads the YAML file, expanding ${VAR} references from the
// environment. A .env file next to the working directory is loaded first if present.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Kafka.ShipmentUpdatedTopicName == "" {
		c.Kafka.ShipmentUpdatedTopicName = "shipment.updated"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Carrier.Mode == "" {
		c.Carrier.Mode = "fake"
	}
	if c.Carrier.Mode == "purolator" && c.Carrier.Endpoint == "" {
		c.Carrier.Endpoint = DefaultPurolatorEndpoint
	}
	if c.Carrier.TimeoutSeconds <= 0 {
		c.Carrier.TimeoutSeconds = 15
	}

	r := &c.RetailDesk
	if r.HTTPAddr == "" {
		r.HTTPAddr = ":8080"
	}
	if r.WorkerHTTPAddr == "" {
		r.WorkerHTTPAddr = ":8081"
	}
	if r.KafkaConsumerGroup == "" {
		r.KafkaConsumerGroup = "retail-api"
	}
	if r.SweepSchedule == "" {
		r.SweepSchedule = "0 6 * * *"
	}
	if r.SweepStalenessHours <= 0 {
		r.SweepStalenessHours = 24
	}
	if r.RateLimitWindowSeconds <= 0 {
		r.RateLimitWindowSeconds = 300
	}
	if r.RateLimitMaxRequests <= 0 {
		r.RateLimitMaxRequests = 10
	}
	if r.CacheBackend == "" {
		r.CacheBackend = "memory"
	}
	if r.CacheTTLSeconds <= 0 {
		r.CacheTTLSeconds = 6 * 60 * 60
	}
	if r.ListCacheTTLSeconds <= 0 {
		r.ListCacheTTLSeconds = 60
	}
}
