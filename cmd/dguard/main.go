package main

import (
	"context"
	"log"
	"os"

	"github.com/seantiz/dguard/internal/api"
	"github.com/seantiz/dguard/internal/config"
	"github.com/seantiz/dguard/internal/engine"
	"github.com/seantiz/dguard/internal/service"
	"github.com/seantiz/dguard/internal/store"
	"github.com/seantiz/dguard/internal/transform"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	logger.Info("dguard: starting",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"workers", cfg.Workers,
		"max_queue", cfg.MaxQueue,
	)

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	eng, err := engine.New(
		service.New(),
		transform.NewCodec(cfg.TransformDelay).Handlers(),
		db,
		logger,
		engine.WithWorkers(cfg.Workers),
		engine.WithMaxQueue(cfg.MaxQueue),
		engine.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	srv := api.NewServer(cfg.ListenAddr, eng, db, logger)
	runErr := srv.Run()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := eng.Close(ctx); err != nil {
		logger.Error("engine shutdown incomplete", "error", err)
	}

	if runErr != nil {
		log.Fatalf("server error: %v", runErr)
	}
	logger.Info("dguard: stopped")
}
