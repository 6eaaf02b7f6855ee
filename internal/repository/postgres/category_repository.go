package postgres

import (
	"context"
	"fmt"

	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements category.Repository using PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const categoryColumns = `id, user_id, name, type, color, icon, limit_amount, parent_id, created_at, updated_at`

func (r *CategoryRepository) scanCategory(s scanner) (*category.Category, error) {
	c := &category.Category{}
	var (
		typ      string
		limitStr *string
	)
	err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Color, &c.Icon, &limitStr, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	if c.Limit, err = nullableCents(limitStr); err != nil {
		return nil, fmt.Errorf("parse limit: %w", err)
	}
	c.Type = transaction.Type(typ)
	return c, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.Color, c.Icon, nullableNumeric(c.Limit), c.ParentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrCategoryNotFound
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	return r.scanCategory(r.db(ctx).QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

// ListByUser lists a user's categories, optionally of one type.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, typ *transaction.Type) ([]*category.Category, error) {
	var typeArg *string
	if typ != nil {
		s := string(*typ)
		typeArg = &s
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+categoryColumns+` FROM categories
		 WHERE user_id = $1 AND ($2::text IS NULL OR type = $2)
		 ORDER BY name`, userID, typeArg)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]*category.Category, 0)
	for rows.Next() {
		c, err := r.scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Update persists the mutable category columns.
func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE categories SET name = $1, type = $2, color = $3, icon = $4, limit_amount = $5,
		 parent_id = $6, updated_at = $7 WHERE id = $8`,
		c.Name, string(c.Type), c.Color, c.Icon, nullableNumeric(c.Limit), c.ParentID, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCategoryNotFound
	}
	return nil
}

// Delete removes a category. The schema nulls category_id on its transactions.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrCategoryNotFound
	}
	return nil
}
