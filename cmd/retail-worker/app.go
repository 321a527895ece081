package main

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/broker/kafka"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/provider"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"github.com/BearBump/RetailDesk/internal/services/scheduler"
	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type workerFactories struct {
	newStorage       func(ctx context.Context, cfg *config.Config) (repo shipments.Repository, closeFn func(), err error)
	newPublisher     func(cfg *config.Config) (pub shipments.Publisher, closeFn func())
	newCarrierClient func(cfg *config.Config) carrier.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (shipments.Repository, func(), error) {
			st, err := pgstore.New(ctx, cfg.Database.DSN(), pgstore.WithConnectWait(60*time.Second))
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newPublisher: func(cfg *config.Config) (shipments.Publisher, func()) {
			if !cfg.Kafka.Enabled() {
				return nil, nil
			}
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			p := kafka.NewProducer(brokers)
			return p, func() { _ = p.Close() }
		},
		newCarrierClient: func(cfg *config.Config) carrier.Client {
			return provider.New(cfg.Carrier)
		},
	}
}

// RunRetailWorker runs the sweep scheduler and the worker's admin HTTP
// server until ctx is cancelled.
func RunRetailWorker(ctx context.Context, cfg *config.Config, f workerFactories, swaggerPath string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	rd := cfg.RetailDesk

	repo, closeFn, err := f.newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	m := metrics.New()
	svc := shipments.New(repo, f.newCarrierClient(cfg), log.Named("shipments")).WithMetrics(m)
	if pub, closePub := f.newPublisher(cfg); pub != nil {
		if closePub != nil {
			defer closePub()
		}
		svc.WithPublisher(pub, cfg.Kafka.ShipmentUpdatedTopicName)
	}

	sched, err := scheduler.New(svc, rd.SweepSchedule, time.Duration(rd.SweepStalenessHours)*time.Hour, log.Named("scheduler"))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		return runWorkerHTTPServer(gctx, workerHTTPOpts{
			httpAddr:    rd.WorkerHTTPAddr,
			swaggerPath: swaggerPath,
			scheduler:   sched,
			metrics:     m,
			cfg:         cfg,
		})
	})
	log.Info("retail worker started", zap.String("schedule", rd.SweepSchedule), zap.Int("staleness_hours", rd.SweepStalenessHours))
	return g.Wait()
}
