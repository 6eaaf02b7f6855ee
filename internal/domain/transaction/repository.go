package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for transaction persistence
type Repository interface {
	// Create inserts a transaction row
	Create(ctx context.Context, t *Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Lock retrieves a transaction with SELECT FOR UPDATE
	Lock(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// Update persists amount, type, description, account and category
	Update(ctx context.Context, t *Transaction) error

	// Delete removes a transaction row
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns transactions visible to filter.UserID, newest first
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

// ListFilter defines filters for listing transactions. UserID is required and
// restricts results to accounts the user can access.
type ListFilter struct {
	UserID    uuid.UUID
	AccountID *uuid.UUID
	Type      *Type
	Start     *time.Time // inclusive
	End       *time.Time // exclusive
	Limit     int
	Offset    int
}
