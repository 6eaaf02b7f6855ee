package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/finance/internal/bootstrap"
	"github.com/cassiomorais/finance/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "finance-api", "finance")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	svc, err := app.Services()
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to build services")
	}
	loc, _ := app.Config.Analytics.Location()

	var cachePinger controller.Pinger
	if app.Config.Cache.Enabled {
		cachePinger = controller.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	deps := controller.RouterDeps{
		Database:           app.Pool,
		Cache:              cachePinger,
		AuthService:        svc.Auth,
		AccountService:     svc.Accounts,
		CategoryService:    svc.Categories,
		TransactionService: svc.Transactions,
		FamilyService:      svc.Families,
		AnalyticsService:   svc.Analytics,
		Verifier:           svc.Tokens,
		IdempotencyRepo:    svc.Repos.Idempotency,
		IdempotencyTTL:     app.Config.Worker.IdempotencyTTL,
		Logger:             app.Logger,
		CORSConfig:         app.Config.Server.CORS,
		RateLimitConfig:    app.Config.Server.RateLimit,
		Cookies: controller.CookieConfig{
			Secure: app.Config.Auth.CookieSecure,
			Domain: app.Config.Auth.CookieDomain,
		},
		Location:       loc,
		RequestTimeout: app.Config.Server.WriteTimeout,
	}
	if app.Config.Observability.EnableMetrics {
		deps.Metrics = app.Metrics
		deps.Gatherer = prometheus.DefaultGatherer
	}
	router := controller.NewRouter(deps)

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server stopped with error")
		return
	}
	app.Logger.Info().Msg("Server exited")
}
