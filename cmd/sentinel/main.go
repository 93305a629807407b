// Sentinel - Fraud probability scoring that deploys in 60 seconds.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/sentinel/internal/api"
	"github.com/opensource-finance/sentinel/internal/bus"
	"github.com/opensource-finance/sentinel/internal/cache"
	"github.com/opensource-finance/sentinel/internal/domain"
	"github.com/opensource-finance/sentinel/internal/justify"
	"github.com/opensource-finance/sentinel/internal/label"
	"github.com/opensource-finance/sentinel/internal/ml"
	"github.com/opensource-finance/sentinel/internal/repository"
	"github.com/opensource-finance/sentinel/internal/scoring"
	"github.com/opensource-finance/sentinel/internal/synth"
	"github.com/opensource-finance/sentinel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("SENTINEL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting sentinel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("SENTINEL_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Train the model. The server does not listen until training has
	// finished; any failure here aborts startup.
	scorer, info, err := trainModel(cfg)
	if err != nil {
		slog.Error("failed to train model", "error", err)
		os.Exit(1)
	}

	// Initialize alert Worker (Pro tier)
	var alertWorker *worker.AlertWorker
	if cfg.Tier == domain.TierPro || os.Getenv("SENTINEL_ALERT_WORKER") == "true" {
		alertWorker = worker.NewAlertWorker(busImpl, repo)
		if err := alertWorker.Start(); err != nil {
			slog.Error("failed to start alert worker", "error", err)
		}
	}

	// Initialize Server
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, scorer, info, Version, cfg.AlertThreshold, cacheTTL)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("sentinel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop alert worker first
	if alertWorker != nil {
		if err := alertWorker.Stop(); err != nil {
			slog.Error("failed to stop alert worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("sentinel shutdown complete")
}

// trainModel runs the startup pipeline: generate the synthetic dataset,
// label it, train the classifier and report holdout diagnostics.
func trainModel(cfg *domain.Config) (*scoring.Service, api.ModelInfo, error) {
	start := time.Now()

	// 1. Generate synthetic dataset
	ds := synth.Generate(cfg.Generator.Seed, cfg.Generator.Samples)
	slog.Info("dataset generated",
		"samples", len(ds),
		"seed", cfg.Generator.Seed,
	)

	// 2. Label it
	policy, err := label.PolicyForName(cfg.Generator)
	if err != nil {
		return nil, api.ModelInfo{}, fmt.Errorf("label policy: %w", err)
	}
	policy.Apply(ds)
	slog.Info("dataset labeled",
		"policy", cfg.Generator.LabelPolicy,
		"fraud_rate", ds.FraudRate(),
	)

	features := ds.FeatureMatrix()
	labels := ds.Labels()

	trainCfg := ml.TrainConfig{
		Trees:        cfg.Training.Trees,
		MaxDepth:     cfg.Training.MaxDepth,
		LearningRate: cfg.Training.LearningRate,
		Seed:         cfg.Training.Seed,
	}

	// 3. Holdout diagnostics before the final fit
	metrics, err := ml.Evaluate(features, labels, cfg.Training.HoldoutFraction, trainCfg)
	if err != nil {
		return nil, api.ModelInfo{}, fmt.Errorf("holdout evaluation: %w", err)
	}
	slog.Info("holdout diagnostics",
		"holdout_size", metrics.HoldoutSize,
		"precision", metrics.Precision,
		"recall", metrics.Recall,
		"f1", metrics.F1,
	)

	// 4. Final fit on the full dataset
	model, err := ml.Fit(features, labels, trainCfg)
	if err != nil {
		return nil, api.ModelInfo{}, fmt.Errorf("training: %w", err)
	}

	// 5. Compile the justification rules
	justifier, err := justify.NewGenerator()
	if err != nil {
		return nil, api.ModelInfo{}, fmt.Errorf("justification rules: %w", err)
	}

	slog.Info("model trained",
		"trees", model.TreeCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	info := api.ModelInfo{
		FeatureNames: domain.FeatureNames,
		Trees:        model.TreeCount(),
		Samples:      len(ds),
		FraudRate:    ds.FraudRate(),
		TrainedAt:    time.Now().UTC(),
		Holdout:      metrics,
	}

	return scoring.NewService(model, justifier), info, nil
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🛡  SENTINEL                 ║")
	fmt.Println("  ║      Fraud Probability Scoring API        ║")
	fmt.Println("  ║      A score for every transaction.       ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /predict          - Score a transaction")
	fmt.Println("    GET  /predictions/{id} - Get prediction by ID")
	fmt.Println("    GET  /model            - Model metadata and diagnostics")
	fmt.Println("    GET  /health           - Health check")
	fmt.Println("    GET  /ready            - Readiness check")
	fmt.Println()
}
