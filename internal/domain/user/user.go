package user

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
)

// User is an identity record. Password holds the bcrypt hash, never the plain text.
type User struct {
	ID                uuid.UUID
	Email             string
	Name              string
	Password          string
	IsConfirmed       bool
	ConfirmationToken *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewUser builds an unconfirmed user with a fresh single-use confirmation token.
func NewUser(email, name, passwordHash string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.NewValidationError("email", "cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.NewValidationError("email", "must be a valid address")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if passwordHash == "" {
		return nil, errors.NewValidationError("password", "cannot be empty")
	}

	token, err := NewConfirmationToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:                uuid.New(),
		Email:             email,
		Name:              name,
		Password:          passwordHash,
		IsConfirmed:       false,
		ConfirmationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Confirm consumes the confirmation token.
func (u *User) Confirm() {
	u.IsConfirmed = true
	u.ConfirmationToken = nil
	u.UpdatedAt = time.Now().UTC()
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewConfirmationToken returns 32 random bytes hex-encoded.
func NewConfirmationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate confirmation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
