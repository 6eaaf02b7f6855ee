package testutil

import (
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	"github.com/cassiomorais/finance/internal/domain/category"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/google/uuid"
)

// NewTestUser returns a confirmed user whose Password holds passwordHash.
func NewTestUser(email, passwordHash string) *user.User {
	now := time.Now().UTC()
	return &user.User{
		ID:          uuid.New(),
		Email:       email,
		Name:        "Test User",
		Password:    passwordHash,
		IsConfirmed: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewTestAccount(balanceCents int64, currency string) *account.Account {
	now := time.Now().UTC()
	return &account.Account{
		ID:             uuid.New(),
		Name:           "Checking",
		Type:           account.TypeBank,
		Balance:        balanceCents,
		OpeningBalance: balanceCents,
		Currency:       currency,
		Color:          account.DefaultColor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func NewTestFamilyAccount(familyID uuid.UUID, balanceCents int64) *account.Account {
	a := NewTestAccount(balanceCents, "USD")
	a.Name = "Household"
	a.FamilyAccountID = &familyID
	return a
}

func NewTestCategory(userID uuid.UUID, name string, limitCents *int64) *category.Category {
	now := time.Now().UTC()
	return &category.Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      transaction.TypeExpense,
		Color:     category.DefaultColor,
		Limit:     limitCents,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestTransaction(userID, accountID uuid.UUID, amountCents int64, typ transaction.Type, date time.Time) *transaction.Transaction {
	now := time.Now().UTC()
	return &transaction.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: accountID,
		Amount:    amountCents,
		Type:      typ,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestFamily returns a family with ownerID as OWNER and memberIDs as MEMBER.
func NewTestFamily(ownerID uuid.UUID, memberIDs ...uuid.UUID) (*family.FamilyAccount, []*family.Member) {
	f := &family.FamilyAccount{
		ID:        uuid.New(),
		Name:      "Family",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	members := []*family.Member{family.NewMember(f.ID, ownerID, family.RoleOwner)}
	for _, id := range memberIDs {
		members = append(members, family.NewMember(f.ID, id, family.RoleMember))
	}
	return f, members
}
