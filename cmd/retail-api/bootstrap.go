package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/api/httpmw"
	"github.com/BearBump/RetailDesk/internal/broker/kafka"
	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/BearBump/RetailDesk/internal/cache/memcache"
	"github.com/BearBump/RetailDesk/internal/cache/rediscache"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/provider"
	"github.com/BearBump/RetailDesk/internal/logger"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"github.com/BearBump/RetailDesk/internal/services/inventory"
	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
	"go.uber.org/zap"
)

type retailAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    retailAPIOpts
	deps    apiDeps
	closers []func()
}

func mustBootstrapRetailAPI() *retailAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	log, err := logger.New(cfg.Log, "retail-api")
	if err != nil {
		panic(fmt.Sprintf("build logger: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &retailAPIApp{ctx: ctx, cancel: cancel}
	app.closers = append(app.closers, func() { _ = log.Sync() })

	st, err := pgstore.New(ctx, cfg.Database.DSN(), pgstore.WithConnectWait(60*time.Second))
	if err != nil {
		log.Fatal("open postgres", zap.Error(err))
	}
	app.closers = append(app.closers, st.Close)

	m := metrics.New()
	bc, limiter, closeCache := newCacheBackend(cfg)
	app.closers = append(app.closers, closeCache)

	rd := cfg.RetailDesk
	svc := shipments.New(st, provider.New(cfg.Carrier), log.Named("shipments")).
		WithCache(bc, time.Duration(rd.ListCacheTTLSeconds)*time.Second).
		WithMetrics(m)
	inv := inventory.New(st, log.Named("inventory")).
		WithCache(bc, time.Duration(rd.CacheTTLSeconds)*time.Second)

	deps := apiDeps{
		shipments: svc,
		inventory: inv,
		verifier:  httpmw.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience),
		limiter:   limiter,
		metrics:   m,
		log:       log,
	}

	if cfg.Kafka.Enabled() {
		brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
		topic := cfg.Kafka.ShipmentUpdatedTopicName

		producer := kafka.NewProducer(brokers)
		svc.WithPublisher(producer, topic)
		consumer := kafka.NewConsumer(brokers, topic, rd.KafkaConsumerGroup).WithLogger(log.Named("kafka"))
		deps.consumer = consumer
		app.closers = append(app.closers, func() { _ = producer.Close() }, func() { _ = consumer.Close() })
	} else {
		log.Warn("kafka not configured, shipment events disabled")
	}

	app.opts = retailAPIOpts{
		httpAddr:    rd.HTTPAddr,
		swaggerPath: swaggerPath,
		cronKey:     rd.CronAPIKey,
		staleness:   time.Duration(rd.SweepStalenessHours) * time.Hour,
		trustProxy:  rd.TrustProxyHeaders,
	}
	app.deps = deps
	return app
}

// newCacheBackend returns the list/lookup cache and the request limiter.
// The redis backend shares counters across API replicas.
func newCacheBackend(cfg *config.Config) (cache.BytesCache, cache.RateLimiter, func()) {
	window := time.Duration(cfg.RetailDesk.RateLimitWindowSeconds) * time.Second
	maxRequests := cfg.RetailDesk.RateLimitMaxRequests

	if cfg.RetailDesk.CacheBackend == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		rc := rediscache.New(addr)
		rl := rediscache.NewRateLimiter(addr, window, maxRequests)
		return rc, rl, func() {
			_ = rc.Close()
			_ = rl.Close()
		}
	}
	return memcache.NewCache(), memcache.NewLimiter(window, maxRequests), func() {}
}

func (a *retailAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *retailAPIApp) Run() error {
	return runRetailAPI(a.ctx, a.opts, a.deps)
}
