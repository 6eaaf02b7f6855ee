package controller

import (
	"net/http"
	"time"

	"github.com/cassiomorais/finance/internal/infrastructure/config"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/finance/internal/middleware"
	"github.com/cassiomorais/finance/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Database Pinger
	Cache    Pinger

	AuthService        *service.AuthService
	AccountService     *service.AccountService
	CategoryService    *service.CategoryService
	TransactionService *service.TransactionService
	FamilyService      *service.FamilyService
	AnalyticsService   *service.AnalyticsService

	Verifier        customMW.AccessVerifier
	IdempotencyRepo customMW.IdempotencyStore
	IdempotencyTTL  time.Duration

	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger

	CORSConfig      config.CORSConfig
	RateLimitConfig config.RateLimit
	Cookies         CookieConfig
	Location        *time.Location
	RequestTimeout  time.Duration
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(customMW.Tracing("finance-api"))
	r.Use(customMW.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", customMW.IdempotencyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(customMW.Metrics(deps.Metrics))
	}

	healthH := NewHealthController(deps.Database, deps.Cache)
	authH := NewAuthController(deps.AuthService, deps.Cookies)
	accountH := NewAccountController(deps.AccountService)
	categoryH := NewCategoryController(deps.CategoryService)
	transactionH := NewTransactionController(deps.TransactionService)
	familyH := NewFamilyController(deps.FamilyService)
	analyticsH := NewAnalyticsController(deps.AnalyticsService, deps.Location)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		limited := customMW.RateLimit(deps.RateLimitConfig.Requests, deps.RateLimitConfig.Window)

		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/register", authH.Register)
			r.With(limited).Post("/login", authH.Login)
			r.With(limited).Post("/refresh", authH.Refresh)
			r.Get("/confirm", authH.Confirm)
			r.Post("/confirm", authH.Confirm)
			// Logout is public so an expired access token can still clear cookies.
			r.Post("/logout", authH.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(customMW.RequireAuth(deps.Verifier))
			idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo, deps.IdempotencyTTL)

			r.Get("/me", authH.Me)
			r.Put("/me", authH.UpdateProfile)

			r.Get("/accounts", accountH.List)
			r.Post("/accounts", accountH.Create)
			r.Get("/accounts/types", accountH.Types)
			r.Get("/accounts/{id}", accountH.Get)

			r.Get("/categories", categoryH.List)
			r.Post("/categories", categoryH.Create)
			r.Get("/categories/{id}", categoryH.Get)
			r.Put("/categories/{id}", categoryH.Update)
			r.Delete("/categories/{id}", categoryH.Delete)

			r.Get("/transactions", transactionH.List)
			r.With(idempotencyMW).Post("/transactions", transactionH.Create)
			r.Get("/transactions/{id}", transactionH.Get)
			r.Put("/transactions/{id}", transactionH.Update)
			r.Delete("/transactions/{id}", transactionH.Delete)

			r.Get("/families", familyH.List)
			r.Post("/families", familyH.Create)
			r.Get("/families/{id}", familyH.Get)
			r.Post("/families/{id}/invitations", familyH.Invite)
			r.Delete("/families/{id}/members/{userId}", familyH.RemoveMember)
			r.Get("/invitations", familyH.ListInvitations)
			r.Post("/invitations/{id}/accept", familyH.Accept)

			r.Get("/analytics/summary", analyticsH.Summary)
			r.Get("/analytics/expenses-by-category", analyticsH.ExpensesByCategory)
			r.Get("/analytics/category-progress", analyticsH.CategoryProgress)
			r.Get("/analytics/balance-history", analyticsH.BalanceHistory)
			r.Get("/analytics/daily", analyticsH.Daily)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Code: "not_found"})
	})

	return r
}
