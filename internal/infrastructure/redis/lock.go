package redis

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// Lua script for safe lock release (only owner can release)
	releaseLockScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	// Lua script for lock extension
	extendLockScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// lockClient is the subset of *redis.Client the lock needs.
type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// DistributedLock is a single-owner Redis lock. The value is a random token so
// only the holder can extend or release it.
type DistributedLock struct {
	client   lockClient
	key      string
	value    string
	ttl      time.Duration
	acquired bool
}

// NewDistributedLock creates a new distributed lock
func NewDistributedLock(client lockClient, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    fmt.Sprintf("finance:lock:%s", key),
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire attempts to acquire the lock
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	// Use SET NX PX to atomically set the lock if it doesn't exist
	success, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	l.acquired = success
	return success, nil
}

// Extend extends the lock TTL
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	if !l.acquired {
		return domainErrors.ErrLockNotHeld
	}

	val, err := extendLockScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	if val == 0 {
		l.acquired = false
		return domainErrors.ErrLockNotHeld
	}
	return nil
}

// Release releases the lock
func (l *DistributedLock) Release(ctx context.Context) error {
	if !l.acquired {
		return nil
	}
	l.acquired = false

	val, err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if val == 0 {
		return domainErrors.ErrLockNotHeld
	}
	return nil
}

// IsAcquired returns whether the lock is acquired
func (l *DistributedLock) IsAcquired() bool {
	return l.acquired
}

// Locker hands out named locks on one Redis client.
type Locker struct {
	client lockClient
}

func NewLocker(client lockClient) *Locker {
	return &Locker{client: client}
}

// WithLock runs fn while holding key. It returns ErrLockAcquisitionFailed
// without calling fn when another owner holds the lock.
func (k *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock := NewDistributedLock(k.client, key, ttl)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return domainErrors.ErrLockAcquisitionFailed
	}
	defer lock.Release(context.WithoutCancel(ctx))

	return fn(ctx)
}
