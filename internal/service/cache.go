package service

import (
	"context"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SummaryCache stores per-user analytics results. Invalidate drops every entry
// of one user at once.
type SummaryCache interface {
	Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, bool, error)
	Set(ctx context.Context, userID uuid.UUID, key string, value []byte) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// NoopCache is used when caching is disabled.
type NoopCache struct{}

func (NoopCache) Get(context.Context, uuid.UUID, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, uuid.UUID, string, []byte) error {
	return nil
}

func (NoopCache) Invalidate(context.Context, uuid.UUID) error {
	return nil
}

// CacheInvalidator drops cached analytics for everyone who can see the
// accounts a mutation touched. Failures are logged; entries expire on their own.
type CacheInvalidator struct {
	cache      SummaryCache
	familyRepo family.Repository
	logger     zerolog.Logger
}

func NewCacheInvalidator(cache SummaryCache, familyRepo family.Repository, logger zerolog.Logger) CacheInvalidator {
	return CacheInvalidator{cache: cache, familyRepo: familyRepo, logger: logger}
}

func (c CacheInvalidator) invalidate(ctx context.Context, userID uuid.UUID, accounts ...*account.Account) {
	if c.cache == nil {
		return
	}
	users := map[uuid.UUID]struct{}{userID: {}}
	for _, a := range accounts {
		if a == nil || !a.IsFamily() {
			continue
		}
		members, err := c.familyRepo.ListMembers(ctx, *a.FamilyAccountID)
		if err != nil {
			c.logger.Warn().Err(err).Str("family_account_id", a.FamilyAccountID.String()).
				Msg("list family members for cache invalidation")
			continue
		}
		for _, m := range members {
			users[m.UserID] = struct{}{}
		}
	}
	for id := range users {
		if err := c.cache.Invalidate(ctx, id); err != nil {
			c.logger.Warn().Err(err).Str("user_id", id.String()).Msg("invalidate summary cache")
		}
	}
}
