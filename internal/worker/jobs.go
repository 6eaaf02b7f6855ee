package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

const (
	JobTokenCleanup       = "token_cleanup"
	JobBalanceDrift       = "balance_drift"
	JobIdempotencyCleanup = "idempotency_cleanup"
)

// TokenPurger deletes refresh token rows that expired before a given instant.
type TokenPurger interface {
	PurgeStale(ctx context.Context, before time.Time) (int64, error)
}

// DriftReporter lists accounts whose stored balance disagrees with their ledger.
type DriftReporter interface {
	Drift(ctx context.Context) ([]account.BalanceDrift, error)
}

type IdempotencyCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// TokenCleanupJob removes expired refresh tokens and rotation tombstones.
func TokenCleanupJob(tokens TokenPurger, metrics *observability.Metrics, logger zerolog.Logger, interval time.Duration) Job {
	return Job{
		Name:     JobTokenCleanup,
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := tokens.PurgeStale(ctx, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("purge stale tokens: %w", err)
			}
			if metrics != nil {
				metrics.TokensPurged.Add(float64(n))
			}
			if n > 0 {
				logger.Info().Int64("purged", n).Msg("Removed stale refresh tokens")
			}
			return nil
		},
	}
}

// BalanceDriftJob recomputes every balance from its ledger and exports the
// disagreement. It only reports; balances are never corrected here.
func BalanceDriftJob(repo DriftReporter, metrics *observability.Metrics, logger zerolog.Logger, interval time.Duration) Job {
	return Job{
		Name:     JobBalanceDrift,
		Interval: interval,
		Run: func(ctx context.Context) error {
			drifts, err := repo.Drift(ctx)
			if err != nil {
				return fmt.Errorf("compute balance drift: %w", err)
			}

			var total int64
			for _, d := range drifts {
				delta := d.Delta()
				if delta < 0 {
					delta = -delta
				}
				total += delta
				logger.Warn().
					Str("account_id", d.AccountID.String()).
					Int64("stored", d.Stored).
					Int64("expected", d.Expected).
					Msg("Account balance drift detected")
			}
			if metrics != nil {
				metrics.BalanceDriftAccounts.Set(float64(len(drifts)))
				metrics.BalanceDriftAbsolute.Set(float64(total))
			}
			return nil
		},
	}
}

// IdempotencyCleanupJob removes expired idempotency records.
func IdempotencyCleanupJob(store IdempotencyCleaner, logger zerolog.Logger, interval time.Duration) Job {
	return Job{
		Name:     JobIdempotencyCleanup,
		Interval: interval,
		Run: func(ctx context.Context) error {
			n, err := store.Cleanup(ctx)
			if err != nil {
				return fmt.Errorf("cleanup idempotency keys: %w", err)
			}
			if n > 0 {
				logger.Info().Int64("deleted", n).Msg("Removed expired idempotency keys")
			}
			return nil
		},
	}
}
