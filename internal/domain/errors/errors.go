package errors

import (
	"errors"
	"fmt"
)

var (
	// Auth errors
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenInvalid        = errors.New("token is invalid")
	ErrTokenExpired        = errors.New("token has expired")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrTokenNotFound       = errors.New("token not found")
	ErrInvalidConfirmation = errors.New("invalid confirmation token")

	// User errors
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrEmailUnconfirmed = errors.New("email not confirmed")

	// Ledger errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid type")

	// Family errors
	ErrFamilyNotFound      = errors.New("family account not found")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrAlreadyMember       = errors.New("user is already a family member")
	ErrInvitationPending   = errors.New("invitation already pending")
	ErrInvitationProcessed = errors.New("invitation already processed")
	ErrOwnerCannotLeave    = errors.New("owner cannot remove themselves")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// Is lets callers match any validation error with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsAuthError reports whether err belongs to the credential failure family.
func IsAuthError(err error) bool {
	for _, target := range []error{
		ErrUnauthorized, ErrInvalidCredentials, ErrTokenInvalid,
		ErrTokenExpired, ErrTokenRevoked, ErrTokenNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
