package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Login failure reasons. They are logged and counted, never returned.
const (
	reasonUnknownEmail  = "unknown_email"
	reasonWrongPassword = "wrong_password"
	reasonUnconfirmed   = "unconfirmed"
)

// AuthConfig tunes password hashing and confirmation links.
type AuthConfig struct {
	BcryptCost     int
	ConfirmBaseURL string
}

// AuthService owns registration, login, refresh and logout.
type AuthService struct {
	userRepo user.Repository
	tokens   *TokenService
	mailer   Mailer
	metrics  *observability.Metrics
	logger   zerolog.Logger
	cfg      AuthConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	userRepo user.Repository,
	tokens *TokenService,
	mailer Mailer,
	metrics *observability.Metrics,
	logger zerolog.Logger,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Register creates an unconfirmed user and hands the confirmation link to the mailer.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	u, err := s.register(ctx, req)
	s.metrics.RecordAuth("register", err)
	return u, err
}

func (s *AuthService) register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	if req.Password == "" {
		return nil, domainErrors.NewValidationError("password", "cannot be empty")
	}
	hash, err := HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u, err := user.NewUser(req.Email, req.Name, hash)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	link := s.confirmationLink(*u.ConfirmationToken)
	if err := s.mailer.SendConfirmation(ctx, u.Email, u.Name, link); err != nil {
		logger := observability.WithTrace(ctx, s.logger)
		logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to send confirmation email")
	}
	return u, nil
}

// Confirm consumes a confirmation token. Unknown tokens fail with ErrInvalidConfirmation.
func (s *AuthService) Confirm(ctx context.Context, confirmationToken string) (*user.User, error) {
	confirmationToken = strings.TrimSpace(confirmationToken)
	if confirmationToken == "" {
		return nil, domainErrors.ErrInvalidConfirmation
	}
	u, err := s.userRepo.GetByConfirmationToken(ctx, confirmationToken)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, domainErrors.ErrInvalidConfirmation
		}
		return nil, err
	}
	u.Confirm()
	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.metrics.RecordAuth("confirm", nil)
	return u, nil
}

// Login verifies credentials and issues a token pair. Unknown email, wrong
// password and unconfirmed email all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, *TokenPair, error) {
	logger := observability.WithTrace(ctx, s.logger)

	u, err := s.userRepo.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, domainErrors.ErrUserNotFound) {
			s.metrics.RecordAuth("login", err)
			return nil, nil, err
		}
		// Spend the same bcrypt time as a real comparison.
		VerifyPassword(s.dummy(), password)
		return nil, nil, s.loginFailed(logger, email, reasonUnknownEmail)
	}
	if !VerifyPassword(u.Password, password) {
		return nil, nil, s.loginFailed(logger, email, reasonWrongPassword)
	}
	if !u.IsConfirmed {
		return nil, nil, s.loginFailed(logger, email, reasonUnconfirmed)
	}

	pair, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		s.metrics.RecordAuth("login", err)
		return nil, nil, err
	}
	s.metrics.RecordAuth("login", nil)
	logger.Info().Str("user_id", u.ID.String()).Msg("user logged in")
	return u, pair, nil
}

func (s *AuthService) loginFailed(logger zerolog.Logger, email, reason string) error {
	s.metrics.RecordAuthOutcome("login", reason)
	logger.Info().Str("email", user.NormalizeEmail(email)).Str("reason", reason).Msg("login rejected")
	return domainErrors.ErrInvalidCredentials
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = HashPassword(uuid.NewString(), s.cfg.BcryptCost)
	})
	return s.dummyHash
}

// Refresh rotates the refresh token and re-reads the user it belongs to.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*user.User, *TokenPair, error) {
	u, pair, err := s.refresh(ctx, refreshToken)
	s.metrics.RecordAuth("refresh", err)
	if err != nil && domainErrors.IsAuthError(err) {
		logger := observability.WithTrace(ctx, s.logger)
		logger.Info().Err(err).Msg("refresh rejected")
	}
	return u, pair, err
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*user.User, *TokenPair, error) {
	pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}
	u, err := s.userRepo.GetByID(ctx, pair.UserID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return nil, nil, domainErrors.ErrTokenInvalid
		}
		return nil, nil, err
	}
	return u, pair, nil
}

// Logout revokes server-side credentials as far as it can. It never fails:
// when the user can be resolved from either token all of their refresh tokens
// are deleted, otherwise only the presented refresh token is.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	logger := observability.WithTrace(ctx, s.logger)

	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		userID, err = s.tokens.VerifyRefreshToken(refreshToken)
	}

	if err == nil {
		n, err := s.tokens.RevokeUser(ctx, userID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", userID.String()).Msg("logout: revoke user tokens failed")
		} else {
			logger.Info().Str("user_id", userID.String()).Int64("revoked", n).Msg("user logged out")
		}
		s.metrics.RecordAuth("logout", err)
		return
	}

	if _, err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		logger.Warn().Err(err).Msg("logout: revoke presented token failed")
		s.metrics.RecordAuth("logout", err)
		return
	}
	s.metrics.RecordAuth("logout", nil)
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes name, email or password of userID. Nil fields are left alone.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domainErrors.NewValidationError("name", "cannot be empty")
		}
		u.Name = name
	}
	if req.Email != nil {
		email := user.NormalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil || email == "" {
			return nil, domainErrors.NewValidationError("email", "must be a valid address")
		}
		u.Email = email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, domainErrors.NewValidationError("password", "cannot be empty")
		}
		hash, err := HashPassword(*req.Password, s.cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *AuthService) confirmationLink(confirmationToken string) string {
	base := s.cfg.ConfirmBaseURL
	if base == "" {
		base = "http://localhost:8080/auth/confirm"
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(confirmationToken)
}
