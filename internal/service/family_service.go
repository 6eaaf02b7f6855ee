package service

import (
	"context"
	"errors"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/google/uuid"
)

// FamilyService manages family accounts, their members and invitations.
type FamilyService struct {
	familyRepo  family.Repository
	userRepo    user.Repository
	authz       *AuthzService
	txManager   TransactionManager
	invalidator CacheInvalidator
}

func NewFamilyService(familyRepo family.Repository, userRepo user.Repository, authz *AuthzService, txManager TransactionManager, invalidator CacheInvalidator) *FamilyService {
	return &FamilyService{
		familyRepo:  familyRepo,
		userRepo:    userRepo,
		authz:       authz,
		txManager:   txManager,
		invalidator: invalidator,
	}
}

// Create makes a family with userID as its OWNER.
func (s *FamilyService) Create(ctx context.Context, userID uuid.UUID, name string, description *string) (*family.FamilyAccount, error) {
	f, err := family.NewFamilyAccount(name, description)
	if err != nil {
		return nil, err
	}
	owner := family.NewMember(f.ID, userID, family.RoleOwner)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.familyRepo.Create(txCtx, f); err != nil {
			return err
		}
		return s.familyRepo.AddMember(txCtx, owner)
	})
	if err != nil {
		return nil, err
	}
	return s.familyRepo.GetByID(ctx, f.ID)
}

func (s *FamilyService) List(ctx context.Context, userID uuid.UUID) ([]*family.FamilyAccount, error) {
	return s.familyRepo.ListByUser(ctx, userID)
}

func (s *FamilyService) Get(ctx context.Context, userID, familyID uuid.UUID) (*family.FamilyAccount, error) {
	if _, err := s.authz.RequireFamilyMember(ctx, userID, familyID); err != nil {
		return nil, err
	}
	return s.familyRepo.GetByID(ctx, familyID)
}

// Invite creates a PENDING invitation for the user registered under email.
func (s *FamilyService) Invite(ctx context.Context, userID, familyID uuid.UUID, email string) (*family.Invitation, error) {
	if _, err := s.authz.RequireFamilyMember(ctx, userID, familyID); err != nil {
		return nil, err
	}

	invitee, err := s.userRepo.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if _, err := s.familyRepo.GetMember(ctx, familyID, invitee.ID); err == nil {
		return nil, domainErrors.ErrAlreadyMember
	} else if !errors.Is(err, domainErrors.ErrFamilyNotFound) {
		return nil, err
	}

	pending, err := s.familyRepo.FindPendingInvitation(ctx, familyID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domainErrors.ErrInvitationPending
	}

	inv := family.NewInvitation(familyID, invitee.ID, userID)
	if err := s.familyRepo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *FamilyService) ListInvitations(ctx context.Context, userID uuid.UUID) ([]*family.Invitation, error) {
	return s.familyRepo.ListPendingInvitations(ctx, userID)
}

// Accept turns a PENDING invitation addressed to userID into a MEMBER row.
func (s *FamilyService) Accept(ctx context.Context, userID, invitationID uuid.UUID) (*family.FamilyAccount, error) {
	var familyID uuid.UUID
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.familyRepo.LockInvitation(txCtx, invitationID)
		if err != nil {
			return err
		}
		if err := inv.Accept(userID); err != nil {
			return err
		}
		if err := s.familyRepo.UpdateInvitation(txCtx, inv); err != nil {
			return err
		}
		familyID = inv.FamilyAccountID
		return s.familyRepo.AddMember(txCtx, family.NewMember(inv.FamilyAccountID, userID, family.RoleMember))
	})
	if err != nil {
		return nil, err
	}

	// The new member now sees the family accounts in their totals.
	s.invalidator.invalidate(ctx, userID)
	return s.familyRepo.GetByID(ctx, familyID)
}

// RemoveMember is reserved to owners, who cannot remove themselves.
func (s *FamilyService) RemoveMember(ctx context.Context, userID, familyID, memberUserID uuid.UUID) error {
	if _, err := s.authz.RequireFamilyOwner(ctx, userID, familyID); err != nil {
		return err
	}
	if memberUserID == userID {
		return domainErrors.ErrOwnerCannotLeave
	}
	if err := s.familyRepo.RemoveMember(ctx, familyID, memberUserID); err != nil {
		return err
	}
	s.invalidator.invalidate(ctx, memberUserID)
	return nil
}
