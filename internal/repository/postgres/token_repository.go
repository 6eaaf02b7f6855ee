package postgres

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/token"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository implements token.Repository using PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const tokenColumns = `id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at`

func (r *TokenRepository) scanToken(s scanner) (*token.RefreshToken, error) {
	t := &token.RefreshToken{}
	err := s.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedBy, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return t, nil
}

// Create inserts a refresh token row.
func (r *TokenRepository) Create(ctx context.Context, t *token.RefreshToken) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO refresh_tokens (`+tokenColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.RevokedAt, t.ReplacedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// LockByHash acquires a row-level lock on the token (SELECT FOR UPDATE).
func (r *TokenRepository) LockByHash(ctx context.Context, hash string) (*token.RefreshToken, error) {
	return r.scanToken(r.db(ctx).QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, hash))
}

// GetByHash retrieves a token by hash.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*token.RefreshToken, error) {
	return r.scanToken(r.db(ctx).QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash))
}

// Revoke stores the rotation tombstone of t.
func (r *TokenRepository) Revoke(ctx context.Context, t *token.RefreshToken) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $1, replaced_by = $2 WHERE id = $3`,
		t.RevokedAt, t.ReplacedBy, t.ID,
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTokenNotFound
	}
	return nil
}

// Delete removes one token row.
func (r *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteByHash removes the row matching hash.
func (r *TokenRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, hash)
	if err != nil {
		return 0, fmt.Errorf("delete refresh token by hash: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes all tokens of a user.
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens by user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteStale removes every row, live or tombstone, that expired before the cutoff.
func (r *TokenRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
