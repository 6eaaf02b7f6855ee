package service

import (
	"context"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/google/uuid"
)

type AccountService struct {
	accountRepo account.Repository
	authz       *AuthzService
	txManager   TransactionManager
	invalidator CacheInvalidator
}

func NewAccountService(accountRepo account.Repository, authz *AuthzService, txManager TransactionManager, invalidator CacheInvalidator) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		authz:       authz,
		txManager:   txManager,
		invalidator: invalidator,
	}
}

// CreateAccount creates a personal account linked to userID, or a family
// account when FamilyAccountID is set and userID is a member of that family.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, req CreateAccountRequest) (*account.Account, error) {
	if req.FamilyAccountID != nil {
		if _, err := s.authz.RequireFamilyMember(ctx, userID, *req.FamilyAccountID); err != nil {
			return nil, err
		}
	}

	acct, err := account.NewAccount(req.Name, req.Type, req.OpeningBalance, req.Currency, req.Color, req.FamilyAccountID)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.accountRepo.Create(txCtx, acct); err != nil {
			return err
		}
		if acct.IsFamily() {
			return nil
		}
		return s.accountRepo.AddUser(txCtx, acct.ID, userID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidator.invalidate(ctx, userID, acct)
	return acct, nil
}

// ListAccounts returns the personal accounts of userID, or every account of
// familyID when it is given.
func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID, familyID *uuid.UUID) ([]*account.Account, error) {
	if familyID == nil {
		return s.accountRepo.ListPersonal(ctx, userID)
	}
	if _, err := s.authz.RequireFamilyMember(ctx, userID, *familyID); err != nil {
		return nil, err
	}
	return s.accountRepo.ListByFamily(ctx, *familyID)
}

func (s *AccountService) GetAccount(ctx context.Context, userID, id uuid.UUID) (*account.Account, error) {
	return s.authz.RequireAccount(ctx, userID, id)
}

func (s *AccountService) Types() []account.TypeOption {
	return account.Types()
}
