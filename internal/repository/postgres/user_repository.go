package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const userColumns = `id, email, name, password, is_confirmed, confirmation_token, created_at, updated_at`

func (r *UserRepository) scanUser(s scanner) (*user.User, error) {
	u := &user.User{}
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.IsConfirmed, &u.ConfirmationToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Password, u.IsConfirmed, u.ConfirmationToken, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.scanUser(r.db(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.scanUser(r.db(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, user.NormalizeEmail(email)))
}

// GetByConfirmationToken retrieves the user holding token.
func (r *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (*user.User, error) {
	return r.scanUser(r.db(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE confirmation_token = $1`, token))
}

// Update persists the mutable user columns.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE users SET email = $1, name = $2, password = $3, is_confirmed = $4,
		 confirmation_token = $5, updated_at = $6 WHERE id = $7`,
		u.Email, u.Name, u.Password, u.IsConfirmed, u.ConfirmationToken, u.UpdatedAt, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}
