// Package main runs the vendor backend service.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/drnkly/vendor-service/internal/app/runtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := runtime.NewApplication()
	if err != nil {
		log.Fatalf("initialise application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run application: %v", err)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
