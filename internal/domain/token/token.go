package token

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the persisted half of a refresh credential. Only the SHA-256
// hash of the raw token is stored. A rotated token is kept as a revoked
// tombstone until it expires so that reuse can be told apart from garbage.
type RefreshToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID
	CreatedAt  time.Time
}

func NewRefreshToken(userID uuid.UUID, raw string, ttl time.Duration) *RefreshToken {
	now := time.Now().UTC()
	return &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: Hash(raw),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Revoke marks the token as consumed by a rotation.
func (t *RefreshToken) Revoke(replacedBy uuid.UUID) {
	now := time.Now().UTC()
	t.RevokedAt = &now
	t.ReplacedBy = &replacedBy
}

// Hash returns the hex SHA-256 digest used as the lookup key.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
