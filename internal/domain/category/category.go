package category

import (
	"strings"
	"time"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

const (
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#64748b"
	DefaultColor       = "#6366f1"
)

// Category groups transactions of one user. Limit is a monthly budget in
// cents; nil or zero means no budget.
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      transaction.Type
	Color     string
	Icon      string
	Limit     *int64
	ParentID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCategory(userID uuid.UUID, name string, typ transaction.Type, color, icon string, limit *int64, parentID *uuid.UUID) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if typ == "" {
		typ = transaction.TypeExpense
	}
	if !typ.Valid() {
		return nil, errors.ErrInvalidType
	}
	if limit != nil && *limit < 0 {
		return nil, errors.NewValidationError("limit", "cannot be negative")
	}
	if color == "" {
		color = DefaultColor
	}

	now := time.Now().UTC()
	return &Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		Color:     color,
		Icon:      icon,
		Limit:     limit,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Category) HasLimit() bool {
	return c.Limit != nil && *c.Limit > 0
}

// Patch carries the mutable fields of an update.
type Patch struct {
	Name        *string
	Type        *transaction.Type
	Color       *string
	Icon        *string
	Limit       *int64
	ClearLimit  bool
	ParentID    *uuid.UUID
	ClearParent bool
}

func (c *Category) Apply(p Patch) error {
	next := *c
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return errors.NewValidationError("name", "cannot be empty")
		}
		next.Name = name
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return errors.ErrInvalidType
		}
		next.Type = *p.Type
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.Icon != nil {
		next.Icon = *p.Icon
	}
	if p.ClearLimit {
		next.Limit = nil
	} else if p.Limit != nil {
		if *p.Limit < 0 {
			return errors.NewValidationError("limit", "cannot be negative")
		}
		v := *p.Limit
		next.Limit = &v
	}
	if p.ClearParent {
		next.ParentID = nil
	} else if p.ParentID != nil {
		if *p.ParentID == c.ID {
			return errors.NewValidationError("parent_id", "cannot reference itself")
		}
		id := *p.ParentID
		next.ParentID = &id
	}
	next.UpdatedAt = time.Now().UTC()
	*c = next
	return nil
}
