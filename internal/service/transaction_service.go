package service

import (
	"context"
	"errors"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TransactionService records income and expenses. Every mutation writes the
// transaction row and the account balance delta in one database transaction.
type TransactionService struct {
	txRepo       transaction.Repository
	accountRepo  account.Repository
	categoryRepo category.Repository
	authz        *AuthzService
	txManager    TransactionManager
	invalidator  CacheInvalidator
	metrics      *observability.Metrics
}

func NewTransactionService(
	txRepo transaction.Repository,
	accountRepo account.Repository,
	categoryRepo category.Repository,
	authz *AuthzService,
	txManager TransactionManager,
	invalidator CacheInvalidator,
	metrics *observability.Metrics,
) *TransactionService {
	return &TransactionService{
		txRepo:       txRepo,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		authz:        authz,
		txManager:    txManager,
		invalidator:  invalidator,
		metrics:      metrics,
	}
}

// Create inserts the transaction and applies its signed amount to the account.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req CreateTransactionRequest) (*transaction.Transaction, error) {
	t, err := transaction.NewTransaction(userID, req.AccountID, req.CategoryID, req.Amount, req.Type, req.Description, req.Date)
	if err != nil {
		return nil, err
	}

	var acct *account.Account
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		a, err := s.authz.RequireAccount(txCtx, userID, t.AccountID)
		if err != nil {
			return err
		}
		acct = a
		if err := s.checkCategory(txCtx, userID, t.CategoryID); err != nil {
			return err
		}
		if err := s.txRepo.Create(txCtx, t); err != nil {
			return err
		}
		return s.accountRepo.ApplyDelta(txCtx, t.AccountID, t.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransaction("create", string(t.Type))
	s.metrics.ObserveTransactionAmount(string(t.Type), t.Amount)
	s.invalidator.invalidate(ctx, userID, acct)
	return t, nil
}

// Update applies patch. When the account is unchanged only the difference of
// the signed amounts is applied; moving to another account reverses the old
// amount on the old account and applies the new one on the new account.
func (s *TransactionService) Update(ctx context.Context, userID, id uuid.UUID, patch transaction.Patch) (*transaction.Transaction, error) {
	var (
		t       *transaction.Transaction
		touched []*account.Account
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		t, err = s.txRepo.Lock(txCtx, id)
		if err != nil {
			return err
		}
		oldAcct, err := s.requireTransactionAccount(txCtx, userID, t)
		if err != nil {
			return err
		}
		touched = append(touched, oldAcct)

		oldAccountID, oldSigned := t.AccountID, t.SignedAmount()
		if err := t.Apply(patch); err != nil {
			return err
		}

		if t.AccountID != oldAccountID {
			newAcct, err := s.authz.RequireAccount(txCtx, userID, t.AccountID)
			if err != nil {
				return err
			}
			touched = append(touched, newAcct)
		}
		if patch.CategoryID != nil && !patch.ClearCategory {
			if err := s.checkCategory(txCtx, userID, t.CategoryID); err != nil {
				return err
			}
		}

		if err := s.txRepo.Update(txCtx, t); err != nil {
			return err
		}
		return s.moveBalance(txCtx, oldAccountID, oldSigned, t.AccountID, t.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransaction("update", string(t.Type))
	s.invalidator.invalidate(ctx, userID, touched...)
	return t, nil
}

// moveBalance applies the balance side of an update. Two distinct accounts are
// touched in id order so concurrent moves cannot deadlock.
func (s *TransactionService) moveBalance(ctx context.Context, oldID uuid.UUID, oldSigned int64, newID uuid.UUID, newSigned int64) error {
	if oldID == newID {
		if delta := newSigned - oldSigned; delta != 0 {
			return s.accountRepo.ApplyDelta(ctx, newID, delta)
		}
		return nil
	}

	deltas := map[uuid.UUID]int64{oldID: -oldSigned, newID: newSigned}
	for _, accountID := range sortUUIDs(oldID, newID) {
		if err := s.accountRepo.ApplyDelta(ctx, accountID, deltas[accountID]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the transaction and reverses its amount on the account.
func (s *TransactionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	var (
		t    *transaction.Transaction
		acct *account.Account
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		t, err = s.txRepo.Lock(txCtx, id)
		if err != nil {
			return err
		}
		acct, err = s.requireTransactionAccount(txCtx, userID, t)
		if err != nil {
			return err
		}
		if err := s.txRepo.Delete(txCtx, id); err != nil {
			return err
		}
		return s.accountRepo.ApplyDelta(txCtx, t.AccountID, -t.SignedAmount())
	})
	if err != nil {
		return err
	}

	s.metrics.RecordTransaction("delete", string(t.Type))
	s.invalidator.invalidate(ctx, userID, acct)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id uuid.UUID) (*transaction.Transaction, error) {
	t, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTransactionAccount(ctx, userID, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns transactions on accounts visible to userID, newest first.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, req ListTransactionsRequest) ([]*transaction.Transaction, error) {
	if req.AccountID != nil {
		if _, err := s.authz.RequireAccount(ctx, userID, *req.AccountID); err != nil {
			return nil, err
		}
	}
	if req.Start != nil && req.End != nil && !req.Start.Before(*req.End) {
		return nil, domainErrors.NewValidationError("endDate", "must be after startDate")
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	return s.txRepo.List(ctx, transaction.ListFilter{
		UserID:    userID,
		AccountID: req.AccountID,
		Type:      req.Type,
		Start:     req.Start,
		End:       req.End,
		Limit:     limit,
		Offset:    req.Offset,
	})
}

// requireTransactionAccount hides transactions on accounts the user cannot see.
func (s *TransactionService) requireTransactionAccount(ctx context.Context, userID uuid.UUID, t *transaction.Transaction) (*account.Account, error) {
	acct, err := s.authz.RequireAccount(ctx, userID, t.AccountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAccountNotFound) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, err
	}
	return acct, nil
}

func (s *TransactionService) checkCategory(ctx context.Context, userID uuid.UUID, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	c, err := s.categoryRepo.GetByID(ctx, *categoryID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return domainErrors.ErrCategoryNotFound
	}
	return nil
}

func sortUUIDs(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() < b.String() {
		return [2]uuid.UUID{a, b}
	}
	return [2]uuid.UUID{b, a}
}
