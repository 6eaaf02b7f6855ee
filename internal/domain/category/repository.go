package category

import (
	"context"

	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

// Repository defines the interface for category persistence
type Repository interface {
	Create(ctx context.Context, c *Category) error

	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// ListByUser returns the user's categories ordered by name, optionally by type
	ListByUser(ctx context.Context, userID uuid.UUID, typ *transaction.Type) ([]*Category, error)

	Update(ctx context.Context, c *Category) error

	// Delete removes a category; its transactions keep existing with no category
	Delete(ctx context.Context, id uuid.UUID) error
}
