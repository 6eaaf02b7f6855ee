package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// cacheClient is the subset of *redis.Client the cache needs.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// BreakerSettings tunes the breaker wrapped around every cache call.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    func(name string, from, to gobreaker.State)
}

// UserCache stores per-user blobs. Invalidation bumps a per-user generation
// counter so stale keys are never read again and simply expire.
type UserCache struct {
	client  cacheClient
	prefix  string
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewUserCache(client cacheClient, prefix string, ttl time.Duration, bs BreakerSettings) *UserCache {
	threshold := bs.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return &UserCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        bs.Name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     bs.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// a miss is a successful round trip
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, redis.Nil)
			},
			OnStateChange: bs.OnStateChange,
		}),
	}
}

// Get returns the cached value. ok is false on a miss or when Redis is
// unavailable; err is set only in the latter case.
func (c *UserCache) Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, bool, error) {
	val, err := c.breaker.Execute(func() ([]byte, error) {
		gen, err := c.generation(ctx, userID)
		if err != nil {
			return nil, err
		}
		return c.client.Get(ctx, c.dataKey(userID, gen, key)).Bytes()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return val, true, nil
}

// Set stores value under key for the user's current generation.
func (c *UserCache) Set(ctx context.Context, userID uuid.UUID, key string, value []byte) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		gen, err := c.generation(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, c.client.Set(ctx, c.dataKey(userID, gen, key), value, c.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops every entry of the user.
func (c *UserCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Incr(ctx, c.genKey(userID)).Err()
	})
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// State exposes the breaker state for metrics.
func (c *UserCache) State() gobreaker.State {
	return c.breaker.State()
}

func (c *UserCache) generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *UserCache) genKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:gen:%s", c.prefix, userID)
}

func (c *UserCache) dataKey(userID uuid.UUID, gen int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", c.prefix, userID, gen, key)
}
