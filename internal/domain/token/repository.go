package token

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for refresh token persistence
type Repository interface {
	// Create stores a new refresh token row
	Create(ctx context.Context, t *RefreshToken) error

	// LockByHash retrieves a token by hash with SELECT FOR UPDATE
	LockByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// GetByHash retrieves a token by hash without locking
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)

	// Revoke marks a token as rotated
	Revoke(ctx context.Context, t *RefreshToken) error

	// Delete removes a single token row
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByHash removes the row matching hash, if any
	DeleteByHash(ctx context.Context, hash string) (int64, error)

	// DeleteByUser removes every token of a user
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteStale removes rows that expired before the given instant
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
