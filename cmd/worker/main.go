package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/finance/internal/bootstrap"
	infraRedis "github.com/cassiomorais/finance/internal/infrastructure/redis"
	"github.com/cassiomorais/finance/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "finance-worker", "finance_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	svc, err := app.Services()
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to build services")
	}

	cfg := app.Config.Worker
	runner := worker.NewRunner(infraRedis.NewLocker(app.Redis), app.Metrics, app.Logger, worker.Config{
		LockTTL:    cfg.LockTTL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})

	app.Logger.Info().Str("consumer", app.Config.InstanceID).Msg("Worker started")

	err = runner.Run(ctx,
		worker.TokenCleanupJob(svc.Tokens, app.Metrics, app.Logger, cfg.TokenCleanupInterval),
		worker.BalanceDriftJob(svc.Repos.Accounts, app.Metrics, app.Logger, cfg.ReconcileInterval),
		worker.IdempotencyCleanupJob(svc.Repos.Idempotency, app.Logger, cfg.TokenCleanupInterval),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}
