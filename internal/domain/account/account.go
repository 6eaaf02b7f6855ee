package account

import (
	"strings"
	"time"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
)

type Type string

const (
	TypeBank       Type = "BANK"
	TypeCash       Type = "CASH"
	TypeSavings    Type = "SAVINGS"
	TypeInvestment Type = "INVESTMENT"
	TypeCredit     Type = "CREDIT"
)

var typeLabels = []struct {
	Type  Type
	Label string
}{
	{TypeBank, "Bank account"},
	{TypeCash, "Cash"},
	{TypeSavings, "Savings"},
	{TypeInvestment, "Investment"},
	{TypeCredit, "Credit card"},
}

// TypeOption pairs an account type with its display label.
type TypeOption struct {
	Type  Type
	Label string
}

// Types lists every account type in display order.
func Types() []TypeOption {
	out := make([]TypeOption, 0, len(typeLabels))
	for _, t := range typeLabels {
		out = append(out, TypeOption{Type: t.Type, Label: t.Label})
	}
	return out
}

func (t Type) Valid() bool {
	for _, l := range typeLabels {
		if l.Type == t {
			return true
		}
	}
	return false
}

const DefaultColor = "#0ea5e9"

// Account is a wallet. Balance is the denormalized running total in cents and
// must always equal OpeningBalance plus the signed sum of its transactions.
// Personal accounts are linked to users through account_users; family accounts
// carry FamilyAccountID and are visible to every member.
type Account struct {
	ID              uuid.UUID
	Name            string
	Type            Type
	Balance         int64
	OpeningBalance  int64
	Currency        string
	Color           string
	FamilyAccountID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewAccount(name string, typ Type, openingBalance int64, currency, color string, familyAccountID *uuid.UUID) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if typ == "" {
		typ = TypeBank
	}
	if !typ.Valid() {
		return nil, errors.ErrInvalidType
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, errors.NewValidationError("currency", "must be a 3-letter code")
	}
	if color == "" {
		color = DefaultColor
	}

	now := time.Now().UTC()
	return &Account{
		ID:              uuid.New(),
		Name:            name,
		Type:            typ,
		Balance:         openingBalance,
		OpeningBalance:  openingBalance,
		Currency:        currency,
		Color:           color,
		FamilyAccountID: familyAccountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (a *Account) IsFamily() bool {
	return a.FamilyAccountID != nil
}
