package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dolicat/internal/catalog"
	"dolicat/internal/config"
	"dolicat/internal/storage"
	"dolicat/internal/watch"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("ERP_API_KEY", cfg.ERPAPIKey))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := watch.NewService(db, cfg, catalog.NewSyncService(db, cfg))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
