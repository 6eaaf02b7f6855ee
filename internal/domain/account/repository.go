package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for account persistence
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// AddUser links a personal account to a user
	AddUser(ctx context.Context, accountID, userID uuid.UUID) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetAccessible retrieves an account only if userID may use it
	GetAccessible(ctx context.Context, id, userID uuid.UUID) (*Account, error)

	// ListPersonal lists accounts linked to the user with no family
	ListPersonal(ctx context.Context, userID uuid.UUID) ([]*Account, error)

	// ListByFamily lists the accounts of a family
	ListByFamily(ctx context.Context, familyAccountID uuid.UUID) ([]*Account, error)

	// ListAccessible lists personal and family accounts available to the user
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]*Account, error)

	// ApplyDelta atomically adds delta to the stored balance
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error

	// Drift reports accounts whose balance disagrees with their ledger
	Drift(ctx context.Context) ([]BalanceDrift, error)
}

// BalanceDrift is the gap between the stored balance and the recomputed one.
type BalanceDrift struct {
	AccountID uuid.UUID
	Stored    int64
	Expected  int64
}

func (d BalanceDrift) Delta() int64 {
	return d.Stored - d.Expected
}
