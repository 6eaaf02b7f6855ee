package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenConfig holds the signing material and lifetimes of both token kinds.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenPair is the result of a login or a rotation.
type TokenPair struct {
	UserID           uuid.UUID
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type tokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService issues, verifies and rotates credentials. Access tokens are
// stateless JWTs; refresh tokens are JWTs whose SHA-256 hash is persisted so
// they can be rotated and revoked.
type TokenService struct {
	tokenRepo token.Repository
	txManager TransactionManager
	cfg       TokenConfig
	now       func() time.Time
}

func NewTokenService(tokenRepo token.Repository, txManager TransactionManager, cfg TokenConfig) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		txManager: txManager,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Issue mints a new access token and persists a new refresh token for userID.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	pair, row, err := s.mint(userID)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return pair, nil
}

// VerifyAccessToken checks signature, kind and expiry of an access token.
func (s *TokenService) VerifyAccessToken(raw string) (uuid.UUID, error) {
	return s.parse(raw, s.cfg.AccessSecret, kindAccess)
}

// VerifyRefreshToken checks only the signature and expiry of a refresh token;
// it does not consult the store.
func (s *TokenService) VerifyRefreshToken(raw string) (uuid.UUID, error) {
	return s.parse(raw, s.cfg.RefreshSecret, kindRefresh)
}

// Rotate exchanges a refresh token for a new pair. The stored row is locked for
// the duration of the exchange so two concurrent calls with the same token
// cannot both succeed: the loser sees the revoked row and fails with
// ErrTokenRevoked. Expired tokens, rotated or not, and tampered tokens are
// deleted before the error is returned.
func (s *TokenService) Rotate(ctx context.Context, raw string) (*TokenPair, error) {
	if raw == "" {
		return nil, domainErrors.ErrTokenNotFound
	}

	var (
		pair    *TokenPair
		outcome error
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		row, err := s.tokenRepo.LockByHash(txCtx, token.Hash(raw))
		if err != nil {
			if errors.Is(err, domainErrors.ErrTokenNotFound) {
				outcome = domainErrors.ErrTokenNotFound
				return nil
			}
			return err
		}

		if row.IsExpired(s.now()) {
			outcome = domainErrors.ErrTokenExpired
			return s.tokenRepo.Delete(txCtx, row.ID)
		}
		if row.IsRevoked() {
			outcome = domainErrors.ErrTokenRevoked
			return nil
		}

		userID, err := s.VerifyRefreshToken(raw)
		if err == nil && userID != row.UserID {
			err = domainErrors.ErrTokenInvalid
		}
		if err != nil {
			outcome = err
			return s.tokenRepo.Delete(txCtx, row.ID)
		}

		next, nextRow, err := s.mint(row.UserID)
		if err != nil {
			return err
		}
		if err := s.tokenRepo.Create(txCtx, nextRow); err != nil {
			return fmt.Errorf("persist refresh token: %w", err)
		}
		row.Revoke(nextRow.ID)
		if err := s.tokenRepo.Revoke(txCtx, row); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		pair = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		return nil, outcome
	}
	return pair, nil
}

// RevokeUser deletes every refresh token of userID.
func (s *TokenService) RevokeUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.tokenRepo.DeleteByUser(ctx, userID)
}

// RevokeToken deletes the row matching raw, if any.
func (s *TokenService) RevokeToken(ctx context.Context, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return s.tokenRepo.DeleteByHash(ctx, token.Hash(raw))
}

// PurgeStale removes tokens that expired before the given instant, including
// rotation tombstones.
func (s *TokenService) PurgeStale(ctx context.Context, before time.Time) (int64, error) {
	return s.tokenRepo.DeleteStale(ctx, before)
}

func (s *TokenService) mint(userID uuid.UUID) (*TokenPair, *token.RefreshToken, error) {
	now := s.now()

	access, accessExp, err := s.sign(userID, kindAccess, s.cfg.AccessSecret, s.cfg.AccessTTL, now)
	if err != nil {
		return nil, nil, err
	}
	refresh, refreshExp, err := s.sign(userID, kindRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTTL, now)
	if err != nil {
		return nil, nil, err
	}

	row := token.NewRefreshToken(userID, refresh, s.cfg.RefreshTTL)
	row.CreatedAt = now.UTC()
	row.ExpiresAt = refreshExp

	return &TokenPair{
		UserID:           userID,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, row, nil
}

func (s *TokenService) sign(userID uuid.UUID, kind, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl).UTC()
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp, nil
}

func (s *TokenService) parse(raw, secret, kind string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, domainErrors.ErrTokenExpired
		}
		return uuid.Nil, domainErrors.ErrTokenInvalid
	}
	if claims.Kind != kind {
		return uuid.Nil, domainErrors.ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domainErrors.ErrTokenInvalid
	}
	return userID, nil
}
