package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewRefreshToken_StoresHashOnly(t *testing.T) {
	userID := uuid.New()
	rt := NewRefreshToken(userID, "raw-secret", time.Hour)

	assert.Equal(t, userID, rt.UserID)
	assert.NotEqual(t, "raw-secret", rt.TokenHash)
	assert.Equal(t, Hash("raw-secret"), rt.TokenHash)
	assert.Len(t, rt.TokenHash, 64)
	assert.False(t, rt.IsRevoked())
}

func TestIsExpired(t *testing.T) {
	rt := NewRefreshToken(uuid.New(), "x", time.Minute)

	assert.False(t, rt.IsExpired(time.Now()))
	assert.True(t, rt.IsExpired(rt.ExpiresAt))
	assert.True(t, rt.IsExpired(rt.ExpiresAt.Add(time.Second)))
}

func TestRevoke(t *testing.T) {
	rt := NewRefreshToken(uuid.New(), "x", time.Minute)
	next := uuid.New()

	rt.Revoke(next)
	assert.True(t, rt.IsRevoked())
	assert.Equal(t, next, *rt.ReplacedBy)
}

func TestHash_Deterministic(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
}
