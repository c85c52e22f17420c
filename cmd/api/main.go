package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewilliams-labs/undertow/internal/adapters/catalog"
	"github.com/ewilliams-labs/undertow/internal/adapters/rest"
	"github.com/ewilliams-labs/undertow/internal/adapters/sqlite"
	"github.com/ewilliams-labs/undertow/internal/cache"
	"github.com/ewilliams-labs/undertow/internal/config"
	"github.com/ewilliams-labs/undertow/internal/core/services"
	"github.com/ewilliams-labs/undertow/internal/logger"
	"github.com/ewilliams-labs/undertow/internal/prep"
	"github.com/ewilliams-labs/undertow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if cfg.Catalog.ClientID == "" || cfg.Catalog.ClientSecret == "" {
		log.Fatal("FATAL: catalog.client_id and catalog.client_secret are required")
	}

	logg, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		log.Fatalf("FATAL: failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Driven adapters: persistent store and catalog API.
	store, err := sqlite.NewAdapter(cfg.Store.Path)
	if err != nil {
		logg.Fatal("failed to initialize store", "path", cfg.Store.Path, "error", err)
	}
	defer store.Close()

	httpClient := catalog.NewOAuthHTTPClient(ctx, cfg.Catalog.ClientID, cfg.Catalog.ClientSecret, cfg.Catalog.TokenURL, cfg.Catalog.Timeout)
	catalogClient := catalog.NewClient(httpClient, cfg.Catalog.BaseURL, logg,
		catalog.WithRetry(cfg.Catalog.MaxRetries, cfg.Catalog.RetryBackoff))

	// Self-healing backfill pool, fed by tiered-cache misses.
	healer := worker.NewPool(store, catalogClient, logg, cfg.Healing.QueueSize, cfg.Healing.TaskTimeout)
	healer.Start(cfg.Healing.Workers)
	defer healer.Stop()

	data := cache.NewTiered(store, catalogClient, healer, logg, cfg.Cache.MemoryTTL, cfg.Cache.StoreTTL)

	// Core services.
	pipeline := services.NewPipeline(data, services.PipelineConfig{
		MinPoolSize:         cfg.Pipeline.MinPoolSize,
		SampleSize:          cfg.Pipeline.SampleSize,
		OptionCount:         cfg.Pipeline.OptionCount,
		BucketQuota:         cfg.Pipeline.BucketQuota,
		Tolerance:           cfg.Pipeline.Tolerance,
		Weights:             cfg.Pipeline.Weights,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		ConvergenceRound:    cfg.Pipeline.ConvergenceRound,
		BatchSize:           cfg.Pipeline.BatchSize,
		BatchWorkers:        cfg.Pipeline.BatchWorkers,
		Gravity:             cfg.Gravity,
	}, logg)
	gravity := services.NewGravityService(cfg.Gravity, logg)

	// Prep job orchestration.
	jobs := prep.NewStore(cfg.Prep.TTL, logg)
	go jobs.Janitor(ctx, cfg.Prep.SweepInterval)
	orch := prep.NewOrchestrator(ctx, jobs, pipeline, prep.Config{
		TTL:        cfg.Prep.TTL,
		SyncWait:   cfg.Prep.SyncWait,
		RunTimeout: cfg.Prep.RunTimeout,
		Sweep:      cfg.Prep.SweepInterval,
	}, logg)

	handler := rest.NewHandler(orch, gravity, logg)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logg.Fatal("server failed", "error", err)
		}
	case <-ctx.Done():
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Warn("shutdown error", "error", err)
		}
	}
}
