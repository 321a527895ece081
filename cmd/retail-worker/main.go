package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("load config: %v", err))
	}
	log, err := logger.New(cfg.Log, "retail-worker")
	if err != nil {
		panic(fmt.Sprintf("build logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = RunRetailWorker(ctx, cfg, defaultWorkerFactories(), os.Getenv("workerSwaggerPath"), log)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("retail worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
