package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/RetailDesk/cmd/retailctl/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.NewRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
