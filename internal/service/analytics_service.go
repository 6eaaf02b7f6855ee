package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/cassiomorais/finance/internal/ledger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryMonths = 6
	maxHistoryMonths     = 36
)

// AnalyticsConfig sets the calendar used for month boundaries.
type AnalyticsConfig struct {
	Location      *time.Location
	HistoryMonths int
}

// AnalyticsService feeds repository reads into the ledger package. Summaries
// and balance histories are cached per user until the next mutation.
type AnalyticsService struct {
	txRepo       transaction.Repository
	accountRepo  account.Repository
	categoryRepo category.Repository
	authz        *AuthzService
	cache        SummaryCache
	metrics      *observability.Metrics
	logger       zerolog.Logger
	cfg          AnalyticsConfig
	now          func() time.Time
}

func NewAnalyticsService(
	txRepo transaction.Repository,
	accountRepo account.Repository,
	categoryRepo category.Repository,
	authz *AuthzService,
	cache SummaryCache,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	cfg AnalyticsConfig,
) *AnalyticsService {
	if cache == nil {
		cache = NoopCache{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HistoryMonths <= 0 {
		cfg.HistoryMonths = defaultHistoryMonths
	}
	return &AnalyticsService{
		txRepo:       txRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		authz:        authz,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Summary returns the dashboard figures of one month.
func (s *AnalyticsService) Summary(ctx context.Context, userID uuid.UUID, year int, month time.Month, accountID *uuid.UUID) (*ledger.Summary, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	now := s.now().In(s.cfg.Location)
	key := fmt.Sprintf("summary:%04d-%02d:%s:%s", year, month, scopeKey(accountID), now.Format("2006-01-02"))

	var cached ledger.Summary
	if s.fromCache(ctx, userID, "summary", key, &cached) {
		return &cached, nil
	}

	accounts, err := s.accounts(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	_, end := ledger.MonthBounds(year, month, s.cfg.Location)
	start := ledger.WindowStart(year, month, s.cfg.Location)
	txs, err := s.transactions(ctx, userID, accountID, &start, &end)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, a := range accounts {
		total += a.Balance
	}
	summary := ledger.Summarize(txs, total, year, month, now, s.cfg.Location)

	s.toCache(ctx, userID, key, summary)
	return &summary, nil
}

// ExpensesByCategory breaks one month's expenses down by category.
func (s *AnalyticsService) ExpensesByCategory(ctx context.Context, userID uuid.UUID, year int, month time.Month, accountID *uuid.UUID) ([]ledger.CategoryAmount, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	txs, cats, err := s.monthWithCategories(ctx, userID, year, month, accountID)
	if err != nil {
		return nil, err
	}
	return ledger.ExpensesByCategory(txs, cats), nil
}

// CategoryProgress reports how much of each expense category's budget is used.
func (s *AnalyticsService) CategoryProgress(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]ledger.CategoryBudget, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	txs, cats, err := s.monthWithCategories(ctx, userID, year, month, nil)
	if err != nil {
		return nil, err
	}
	return ledger.CategoryProgress(txs, cats), nil
}

// BalanceHistory returns one point per month ending with the current month.
func (s *AnalyticsService) BalanceHistory(ctx context.Context, userID uuid.UUID, months int, accountID *uuid.UUID) ([]ledger.MonthPoint, error) {
	if months <= 0 {
		months = s.cfg.HistoryMonths
	}
	if months > maxHistoryMonths {
		months = maxHistoryMonths
	}
	now := s.now().In(s.cfg.Location)
	key := fmt.Sprintf("history:%d:%s:%s", months, scopeKey(accountID), now.Format("2006-01-02"))

	var cached []ledger.MonthPoint
	if s.fromCache(ctx, userID, "history", key, &cached) {
		return cached, nil
	}

	accounts, err := s.accounts(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	var opening int64
	for _, a := range accounts {
		opening += a.OpeningBalance
	}

	_, end := ledger.MonthBounds(now.Year(), now.Month(), s.cfg.Location)
	txs, err := s.transactions(ctx, userID, accountID, nil, &end)
	if err != nil {
		return nil, err
	}

	points := ledger.BalanceHistory(txs, opening, months, now, s.cfg.Location)
	s.toCache(ctx, userID, key, points)
	return points, nil
}

// Daily lists the transactions of one calendar day.
func (s *AnalyticsService) Daily(ctx context.Context, userID uuid.UUID, day time.Time, accountID *uuid.UUID) (*ledger.Day, error) {
	if day.IsZero() {
		day = s.now()
	}
	start, end := ledger.DayBounds(day, s.cfg.Location)
	txs, err := s.transactions(ctx, userID, accountID, &start, &end)
	if err != nil {
		return nil, err
	}
	d := ledger.DailySummary(txs, day, s.cfg.Location)
	return &d, nil
}

func (s *AnalyticsService) monthWithCategories(ctx context.Context, userID uuid.UUID, year int, month time.Month, accountID *uuid.UUID) ([]*transaction.Transaction, []*category.Category, error) {
	start, end := ledger.MonthBounds(year, month, s.cfg.Location)
	txs, err := s.transactions(ctx, userID, accountID, &start, &end)
	if err != nil {
		return nil, nil, err
	}
	cats, err := s.categoryRepo.ListByUser(ctx, userID, nil)
	if err != nil {
		return nil, nil, err
	}
	return txs, cats, nil
}

func (s *AnalyticsService) accounts(ctx context.Context, userID uuid.UUID, accountID *uuid.UUID) ([]*account.Account, error) {
	if accountID != nil {
		a, err := s.authz.RequireAccount(ctx, userID, *accountID)
		if err != nil {
			return nil, err
		}
		return []*account.Account{a}, nil
	}
	return s.accountRepo.ListAccessible(ctx, userID)
}

func (s *AnalyticsService) transactions(ctx context.Context, userID uuid.UUID, accountID *uuid.UUID, start, end *time.Time) ([]*transaction.Transaction, error) {
	if accountID != nil {
		if _, err := s.authz.RequireAccount(ctx, userID, *accountID); err != nil {
			return nil, err
		}
	}
	return s.txRepo.List(ctx, transaction.ListFilter{
		UserID:    userID,
		AccountID: accountID,
		Start:     start,
		End:       end,
	})
}

func (s *AnalyticsService) fromCache(ctx context.Context, userID uuid.UUID, name, key string, dst any) bool {
	raw, ok, err := s.cache.Get(ctx, userID, key)
	if err != nil {
		s.metrics.RecordCache(name, "error")
		s.logger.Debug().Err(err).Str("key", key).Msg("summary cache unavailable")
		return false
	}
	if !ok {
		s.metrics.RecordCache(name, "miss")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.metrics.RecordCache(name, "error")
		return false
	}
	s.metrics.RecordCache(name, "hit")
	return true
}

func (s *AnalyticsService) toCache(ctx context.Context, userID uuid.UUID, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, userID, key, raw); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("summary cache write failed")
	}
}

func scopeKey(accountID *uuid.UUID) string {
	if accountID == nil {
		return "all"
	}
	return accountID.String()
}

func validMonth(year int, month time.Month) error {
	if month < time.January || month > time.December {
		return domainErrors.NewValidationError("month", "must be between 1 and 12")
	}
	if year < 1970 || year > 9999 {
		return domainErrors.NewValidationError("year", "out of range")
	}
	return nil
}
