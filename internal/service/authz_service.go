package service

import (
	"context"
	"errors"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/middleware"
	"github.com/google/uuid"
)

// AuthzService answers "may this user touch that resource" questions.
type AuthzService struct {
	accountRepo account.Repository
	familyRepo  family.Repository
}

func NewAuthzService(accountRepo account.Repository, familyRepo family.Repository) *AuthzService {
	return &AuthzService{accountRepo: accountRepo, familyRepo: familyRepo}
}

// CurrentUser returns the authenticated user id stored by the auth middleware.
func (s *AuthzService) CurrentUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return uuid.Nil, domainErrors.ErrUnauthorized
	}
	return userID, nil
}

// RequireAccount returns the account when userID can access it. Inaccessible
// accounts are reported as not found so their existence is not revealed.
func (s *AuthzService) RequireAccount(ctx context.Context, userID, accountID uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetAccessible(ctx, accountID, userID)
}

// RequireFamilyMember returns the caller's membership. A family the caller is
// not part of yields ErrForbidden, a missing family ErrFamilyNotFound.
func (s *AuthzService) RequireFamilyMember(ctx context.Context, userID, familyID uuid.UUID) (*family.Member, error) {
	m, err := s.familyRepo.GetMember(ctx, familyID, userID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, domainErrors.ErrFamilyNotFound) {
		return nil, err
	}
	if _, err := s.familyRepo.GetByID(ctx, familyID); err != nil {
		return nil, err
	}
	return nil, domainErrors.ErrForbidden
}

// RequireFamilyOwner is RequireFamilyMember restricted to the OWNER role.
func (s *AuthzService) RequireFamilyOwner(ctx context.Context, userID, familyID uuid.UUID) (*family.Member, error) {
	m, err := s.RequireFamilyMember(ctx, userID, familyID)
	if err != nil {
		return nil, err
	}
	if !m.IsOwner() {
		return nil, domainErrors.ErrForbidden
	}
	return m, nil
}
