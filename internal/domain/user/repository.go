package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for user persistence
type Repository interface {
	// Create inserts a user; returns ErrEmailTaken on a duplicate email
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByConfirmationToken retrieves the user holding an unconsumed confirmation token
	GetByConfirmationToken(ctx context.Context, token string) (*User, error)

	// Update persists name, email, password and confirmation state
	Update(ctx context.Context, u *User) error
}
