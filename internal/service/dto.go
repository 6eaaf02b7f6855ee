package service

import (
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

// Controllers convert their HTTP DTOs to these types. Money is in cents.

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

type UpdateProfileRequest struct {
	Name     *string
	Email    *string
	Password *string
}

type CreateAccountRequest struct {
	Name            string
	Type            account.Type
	OpeningBalance  int64
	Currency        string
	Color           string
	FamilyAccountID *uuid.UUID
}

type CreateCategoryRequest struct {
	Name     string
	Type     transaction.Type
	Color    string
	Icon     string
	Limit    *int64
	ParentID *uuid.UUID
}

type CreateTransactionRequest struct {
	AccountID   uuid.UUID
	CategoryID  *uuid.UUID
	Amount      int64
	Type        transaction.Type
	Description string
	Date        time.Time
}

type ListTransactionsRequest struct {
	AccountID *uuid.UUID
	Type      *transaction.Type
	Start     *time.Time
	End       *time.Time
	Limit     int
	Offset    int
}
