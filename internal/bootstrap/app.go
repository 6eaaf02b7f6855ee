package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/finance/internal/infrastructure/config"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/finance/internal/infrastructure/redis"
	"github.com/cassiomorais/finance/internal/repository/postgres"
	"github.com/cassiomorais/finance/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout).
		With().Str("service", serviceName).Str("instance", cfg.InstanceID).Logger()
	logger.Info().Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)
	logger.Info().Msg("Metrics initialized")

	pool, err := postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return &App{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics,
	}, nil
}

func (a *App) Close() {
	a.Redis.Close()
	a.Pool.Close()
}

// Repositories are the postgres adapters shared by the API and the worker.
type Repositories struct {
	Users        *postgres.UserRepository
	Tokens       *postgres.TokenRepository
	Accounts     *postgres.AccountRepository
	Categories   *postgres.CategoryRepository
	Transactions *postgres.TransactionRepository
	Families     *postgres.FamilyRepository
	Idempotency  *postgres.IdempotencyRepository
	TxManager    *postgres.TxManager
}

func (a *App) Repositories() *Repositories {
	return &Repositories{
		Users:        postgres.NewUserRepository(a.Pool),
		Tokens:       postgres.NewTokenRepository(a.Pool),
		Accounts:     postgres.NewAccountRepository(a.Pool),
		Categories:   postgres.NewCategoryRepository(a.Pool),
		Transactions: postgres.NewTransactionRepository(a.Pool),
		Families:     postgres.NewFamilyRepository(a.Pool),
		Idempotency:  postgres.NewIdempotencyRepository(a.Pool),
		TxManager:    postgres.NewTxManager(a.Pool),
	}
}

type Services struct {
	Repos        *Repositories
	Cache        service.SummaryCache
	Tokens       *service.TokenService
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Categories   *service.CategoryService
	Transactions *service.TransactionService
	Families     *service.FamilyService
	Analytics    *service.AnalyticsService
}

// Services wires every domain service on top of the postgres repositories.
// The summary cache is Redis-backed when cache.enabled is set.
func (a *App) Services() (*Services, error) {
	cfg := a.Config
	repos := a.Repositories()

	loc, err := cfg.Analytics.Location()
	if err != nil {
		return nil, fmt.Errorf("analytics timezone: %w", err)
	}

	var cache service.SummaryCache = service.NoopCache{}
	if cfg.Cache.Enabled {
		cache = a.summaryCache()
	}

	tokens := service.NewTokenService(repos.Tokens, repos.TxManager, service.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		Issuer:        cfg.Auth.Issuer,
	})
	authz := service.NewAuthzService(repos.Accounts, repos.Families)
	invalidator := service.NewCacheInvalidator(cache, repos.Families, a.Logger)

	return &Services{
		Repos:  repos,
		Cache:  cache,
		Tokens: tokens,
		Auth: service.NewAuthService(repos.Users, tokens, service.NewLogMailer(a.Logger), a.Metrics, a.Logger, service.AuthConfig{
			BcryptCost:     cfg.Auth.BcryptCost,
			ConfirmBaseURL: cfg.Auth.ConfirmBaseURL,
		}),
		Accounts:     service.NewAccountService(repos.Accounts, authz, repos.TxManager, invalidator),
		Categories:   service.NewCategoryService(repos.Categories, invalidator),
		Transactions: service.NewTransactionService(repos.Transactions, repos.Accounts, repos.Categories, authz, repos.TxManager, invalidator, a.Metrics),
		Families:     service.NewFamilyService(repos.Families, repos.Users, authz, repos.TxManager, invalidator),
		Analytics: service.NewAnalyticsService(repos.Transactions, repos.Accounts, repos.Categories, authz, cache, a.Metrics, a.Logger, service.AnalyticsConfig{
			Location:      loc,
			HistoryMonths: cfg.Analytics.HistoryMonths,
		}),
	}, nil
}

func (a *App) summaryCache() *infraRedis.UserCache {
	logger := a.Logger
	gauge := a.Metrics.CircuitBreakerState
	return infraRedis.NewUserCache(a.Redis, "finance:summary", a.Config.Cache.SummaryTTL, infraRedis.BreakerSettings{
		Name:             "redis-cache",
		FailureThreshold: uint32(a.Config.Cache.CircuitBreakerThreshold),
		OpenTimeout:      a.Config.Cache.CircuitBreakerTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			gauge.WithLabelValues(name).Set(float64(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}
