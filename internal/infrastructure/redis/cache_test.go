package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(f *fakeRedis) *UserCache {
	return NewUserCache(f, "test", time.Minute, BreakerSettings{
		Name:             "test-cache",
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	})
}

func TestUserCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(newFakeRedis())
	userID := uuid.New()

	_, ok, err := c.Get(ctx, userID, "summary")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, userID, "summary", []byte(`{"a":1}`)))

	val, ok, err := c.Get(ctx, userID, "summary")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(val))
}

func TestUserCache_InvalidateIsPerUser(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(newFakeRedis())
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, c.Set(ctx, alice, "k", []byte("a")))
	require.NoError(t, c.Set(ctx, bob, "k", []byte("b")))
	require.NoError(t, c.Invalidate(ctx, alice))

	_, ok, err := c.Get(ctx, alice, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	val, ok, err := c.Get(ctx, bob, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", string(val))
}

func TestUserCache_MissesDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(newFakeRedis())

	for i := 0; i < 5; i++ {
		_, _, err := c.Get(ctx, uuid.New(), "missing")
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestUserCache_BreakerOpensOnFailures(t *testing.T) {
	ctx := context.Background()
	f := newFakeRedis()
	c := newTestCache(f)
	userID := uuid.New()

	f.setDown(true)
	for i := 0; i < 2; i++ {
		_, ok, err := c.Get(ctx, userID, "k")
		assert.Error(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	// open breaker short-circuits even after Redis recovers
	f.setDown(false)
	_, _, err := c.Get(ctx, userID, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
