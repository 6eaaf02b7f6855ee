package service

import (
	"context"
	"testing"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

func setupAccountService() (*AccountService, *ledgerFixture) {
	f := newLedgerFixture()
	return NewAccountService(f.accounts, f.authz, f.txManager, f.invalidate), f
}

// --- CreateAccount Tests ---

func TestCreateAccount_Personal(t *testing.T) {
	svc, f := setupAccountService()
	userID := uuid.New()

	acct, err := svc.CreateAccount(context.Background(), userID, CreateAccountRequest{
		Name: "Checking", Type: account.TypeBank, OpeningBalance: 100000, Currency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100000), acct.Balance)
	assert.Equal(t, int64(100000), acct.OpeningBalance)
	assert.Equal(t, "USD", acct.Currency)
	assert.Equal(t, account.DefaultColor, acct.Color)
	assert.False(t, acct.IsFamily())

	assert.NotNil(t, f.accounts.GetAccountByID(acct.ID))
	assert.True(t, f.accounts.IsLinked(acct.ID, userID))
	assert.Equal(t, 1, f.cache.Invalidations[userID])
}

func TestCreateAccount_DefaultsToBank(t *testing.T) {
	svc, _ := setupAccountService()

	acct, err := svc.CreateAccount(context.Background(), uuid.New(), CreateAccountRequest{Name: "Wallet", Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, account.TypeBank, acct.Type)
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, f := setupAccountService()

	tests := []struct {
		name string
		req  CreateAccountRequest
		want error
	}{
		{"blank name", CreateAccountRequest{Name: "  ", Currency: "USD"}, domainErrors.ErrValidationFailed},
		{"bad currency", CreateAccountRequest{Name: "A", Currency: "DOLLARS"}, domainErrors.ErrValidationFailed},
		{"bad type", CreateAccountRequest{Name: "A", Type: "CRYPTO", Currency: "USD"}, domainErrors.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), uuid.New(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	all, _ := f.accounts.ListAccessible(context.Background(), uuid.New())
	assert.Empty(t, all)
}

func TestCreateAccount_FamilyRequiresMembership(t *testing.T) {
	svc, f := setupAccountService()
	owner, member, outsider := uuid.New(), uuid.New(), uuid.New()
	fam, members := testutil.NewTestFamily(owner, member)
	f.families.AddFamily(fam, members...)

	acct, err := svc.CreateAccount(context.Background(), member, CreateAccountRequest{
		Name: "Household", Currency: "USD", FamilyAccountID: &fam.ID,
	})
	require.NoError(t, err)
	assert.True(t, acct.IsFamily())
	assert.False(t, f.accounts.IsLinked(acct.ID, member))
	assert.Equal(t, 1, f.cache.Invalidations[owner])

	_, err = svc.CreateAccount(context.Background(), outsider, CreateAccountRequest{
		Name: "Sneaky", Currency: "USD", FamilyAccountID: &fam.ID,
	})
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)

	missing := uuid.New()
	_, err = svc.CreateAccount(context.Background(), owner, CreateAccountRequest{
		Name: "Ghost", Currency: "USD", FamilyAccountID: &missing,
	})
	assert.ErrorIs(t, err, domainErrors.ErrFamilyNotFound)
}

func TestCreateAccount_RepositoryError(t *testing.T) {
	svc, f := setupAccountService()
	userID := uuid.New()
	f.accounts.CreateFunc = func(ctx context.Context, a *account.Account) error {
		return assert.AnError
	}

	_, err := svc.CreateAccount(context.Background(), userID, CreateAccountRequest{Name: "A", Currency: "USD"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, f.cache.Invalidations[userID])
}

// --- Read Tests ---

func TestListAccounts(t *testing.T) {
	svc, f := setupAccountService()
	ctx := context.Background()
	owner, outsider := uuid.New(), uuid.New()
	personal := f.personalAccount(owner, 0)
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)
	shared := testutil.NewTestFamilyAccount(fam.ID, 0)
	f.accounts.AddAccount(shared)

	mine, err := svc.ListAccounts(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, personal.ID, mine[0].ID)

	family, err := svc.ListAccounts(ctx, owner, &fam.ID)
	require.NoError(t, err)
	require.Len(t, family, 1)
	assert.Equal(t, shared.ID, family[0].ID)

	_, err = svc.ListAccounts(ctx, outsider, &fam.ID)
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)
}

func TestGetAccount_HidesForeignAccounts(t *testing.T) {
	svc, f := setupAccountService()
	owner := uuid.New()
	acct := f.personalAccount(owner, 42)

	got, err := svc.GetAccount(context.Background(), owner, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Balance)

	_, err = svc.GetAccount(context.Background(), uuid.New(), acct.ID)
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
}

func TestAccountTypes(t *testing.T) {
	svc, _ := setupAccountService()
	types := svc.Types()
	require.NotEmpty(t, types)
	assert.Equal(t, account.TypeBank, types[0].Type)
}
