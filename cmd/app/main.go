package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogpost/internal/config"
	"blogpost/internal/db"
	"blogpost/internal/log"
	"blogpost/internal/metrics"
	"blogpost/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting blog server",
		"env", cfg.Env,
		"addr", cfg.ListenAddr(),
		"db_driver", cfg.DBDriver,
	)

	metricsObj, metricsHandler, err := metrics.Setup("blogpost")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	openCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := db.Open(openCtx, db.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, logger)
	cancel()
	if err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, store, logger, metricsObj, metricsHandler)
	if err := srv.Start(ctx); err != nil {
		logger.Errorw("Server stopped with error", "error", err)
		return
	}
	logger.Infow("Server stopped")
}
