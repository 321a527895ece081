package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/RetailDesk/internal/api/httpmw"
	"github.com/BearBump/RetailDesk/internal/api/inventory_api"
	"github.com/BearBump/RetailDesk/internal/api/shipments_api"
	"github.com/BearBump/RetailDesk/internal/broker/messages"
	"github.com/BearBump/RetailDesk/internal/cache"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type retailAPIOpts struct {
	httpAddr    string
	swaggerPath string
	cronKey     string
	staleness   time.Duration
	trustProxy  bool

	onListen func(httpAddr string)
}

type shipmentsService interface {
	shipments_api.Service
	HandleShipmentUpdated(ctx context.Context, ev messages.ShipmentUpdated) error
}

type shipmentUpdatesConsumer interface {
	ConsumeShipmentUpdates(ctx context.Context, handler func(ctx context.Context, ev messages.ShipmentUpdated) error) error
}

type apiDeps struct {
	shipments shipmentsService
	inventory inventory_api.Service
	verifier  *httpmw.JWTVerifier
	limiter   cache.RateLimiter
	metrics   *metrics.Metrics
	consumer  shipmentUpdatesConsumer
	log       *zap.Logger
}

// runRetailAPI serves HTTP and, when a consumer is wired, applies
// shipment.updated events until ctx is cancelled.
func runRetailAPI(ctx context.Context, opts retailAPIOpts, deps apiDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}
	if deps.log == nil {
		deps.log = zap.NewNop()
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newRouter(opts, deps), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	})
	g.Go(func() error {
		deps.log.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if deps.consumer != nil {
		g.Go(func() error {
			deps.log.Info("shipment updates consumer started")
			err := deps.consumer.ConsumeShipmentUpdates(gctx, deps.shipments.HandleShipmentUpdated)
			if gctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "consume shipment updates")
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func newRouter(opts retailAPIOpts, deps apiDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httpmw.Instrument(deps.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpmw.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", deps.metrics.Handler())
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json")))

	shipmentsAPI := shipments_api.New(deps.shipments, opts.staleness, deps.log)
	inventoryAPI := inventory_api.New(deps.inventory, deps.log)

	r.Route("/api", func(r chi.Router) {
		if deps.limiter != nil {
			r.Use(httpmw.RateLimit(deps.limiter, deps.metrics, deps.log, opts.trustProxy))
		}
		r.Group(func(r chi.Router) {
			r.Use(httpmw.Auth(deps.verifier, deps.log))
			shipmentsAPI.Routes(r)
			inventoryAPI.Routes(r)
		})
		r.With(httpmw.CronKey(opts.cronKey)).Post("/cron", shipmentsAPI.Cron)
	})
	return r
}
