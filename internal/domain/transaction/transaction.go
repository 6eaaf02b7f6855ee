package transaction

import (
	"strings"
	"time"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
)

type Type string

const (
	TypeIncome  Type = "INCOME"
	TypeExpense Type = "EXPENSE"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ParseType accepts either case and rejects anything but INCOME or EXPENSE.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.ErrInvalidType
	}
	return t, nil
}

// Transaction is a ledger entry. Amount is always positive, in cents; the sign
// comes from Type. Date is the date of record and never changes.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	Amount      int64
	Type        Type
	Description string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewTransaction(userID, accountID uuid.UUID, categoryID *uuid.UUID, amount int64, typ Type, description string, date time.Time) (*Transaction, error) {
	if amount <= 0 {
		return nil, errors.ErrInvalidAmount
	}
	if !typ.Valid() {
		return nil, errors.ErrInvalidType
	}
	if accountID == uuid.Nil {
		return nil, errors.NewValidationError("account_id", "cannot be empty")
	}

	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	return &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Type:        typ,
		Description: strings.TrimSpace(description),
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SignedAmount is the contribution of the entry to its account balance.
func (t *Transaction) SignedAmount() int64 {
	return Signed(t.Amount, t.Type)
}

func Signed(amount int64, typ Type) int64 {
	if typ == TypeExpense {
		return -amount
	}
	return amount
}

// Patch carries the mutable fields of an update. Nil fields are left alone.
type Patch struct {
	Amount        *int64
	Type          *Type
	Description   *string
	AccountID     *uuid.UUID
	CategoryID    *uuid.UUID
	ClearCategory bool
}

// Apply validates and applies p. On error t is left untouched.
func (t *Transaction) Apply(p Patch) error {
	next := *t
	if p.Amount != nil {
		if *p.Amount <= 0 {
			return errors.ErrInvalidAmount
		}
		next.Amount = *p.Amount
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return errors.ErrInvalidType
		}
		next.Type = *p.Type
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.AccountID != nil {
		if *p.AccountID == uuid.Nil {
			return errors.NewValidationError("account_id", "cannot be empty")
		}
		next.AccountID = *p.AccountID
	}
	if p.ClearCategory {
		next.CategoryID = nil
	} else if p.CategoryID != nil {
		id := *p.CategoryID
		next.CategoryID = &id
	}
	next.UpdatedAt = time.Now().UTC()
	*t = next
	return nil
}
