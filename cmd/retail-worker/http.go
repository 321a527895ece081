package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/api/httpmw"
	"github.com/BearBump/RetailDesk/internal/metrics"
	"github.com/BearBump/RetailDesk/internal/services/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	scheduler *scheduler.Scheduler
	metrics   *metrics.Metrics
	cfg       *config.Config
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8081"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("worker swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("worker swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newWorkerRouter(opts), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newWorkerRouter(opts workerHTTPOpts) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmw.Instrument(opts.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpmw.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		httpmw.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", opts.metrics.Handler())

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		if opts.scheduler == nil {
			httpmw.WriteError(w, http.StatusServiceUnavailable, "scheduler not wired")
			return
		}
		httpmw.WriteJSON(w, http.StatusOK, opts.scheduler.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		if opts.cfg == nil {
			httpmw.WriteError(w, http.StatusServiceUnavailable, "config not wired")
			return
		}
		// Operational settings only; credentials stay out.
		rd := opts.cfg.RetailDesk
		httpmw.WriteJSON(w, http.StatusOK, map[string]any{
			"sweepSchedule":       rd.SweepSchedule,
			"sweepStalenessHours": rd.SweepStalenessHours,
			"carrierMode":         opts.cfg.Carrier.Mode,
			"carrierTimeoutSecs":  opts.cfg.Carrier.TimeoutSeconds,
			"kafkaEnabled":        opts.cfg.Kafka.Enabled(),
			"shipmentTopic":       opts.cfg.Kafka.ShipmentUpdatedTopicName,
		})
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if opts.scheduler == nil {
			httpmw.WriteError(w, http.StatusServiceUnavailable, "scheduler not wired")
			return
		}
		opts.scheduler.Trigger()
		httpmw.WriteJSON(w, http.StatusAccepted, map[string]bool{"triggered": true})
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	return r
}
