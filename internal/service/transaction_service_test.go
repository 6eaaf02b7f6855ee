package service

import (
	"context"
	"testing"
	"time"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/cassiomorais/finance/internal/testutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

type ledgerFixture struct {
	accounts   *testutil.MockAccountRepository
	txs        *testutil.MockTransactionRepository
	categories *testutil.MockCategoryRepository
	families   *testutil.MockFamilyRepository
	users      *testutil.MockUserRepository
	cache      *testutil.MemoryCache
	txManager  *testutil.MockTransactionManager
	authz      *AuthzService
	invalidate CacheInvalidator
	metrics    *observability.Metrics
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		accounts:   testutil.NewMockAccountRepository(),
		txs:        testutil.NewMockTransactionRepository(),
		categories: testutil.NewMockCategoryRepository(),
		families:   testutil.NewMockFamilyRepository(),
		users:      testutil.NewMockUserRepository(),
		cache:      testutil.NewMemoryCache(),
		metrics:    observability.NewMetrics("test", prometheus.NewRegistry()),
	}
	f.accounts.Families = f.families
	f.txs.Accounts = f.accounts
	f.txManager = testutil.NewMockTransactionManager(f.accounts, f.txs, f.families)
	f.authz = NewAuthzService(f.accounts, f.families)
	f.invalidate = NewCacheInvalidator(f.cache, f.families, zerolog.Nop())
	return f
}

func (f *ledgerFixture) transactionService() *TransactionService {
	return NewTransactionService(f.txs, f.accounts, f.categories, f.authz, f.txManager, f.invalidate, f.metrics)
}

func (f *ledgerFixture) personalAccount(userID uuid.UUID, balance int64) *account.Account {
	a := testutil.NewTestAccount(balance, "USD")
	f.accounts.AddAccount(a, userID)
	return a
}

func int64Ptr(v int64) *int64 { return &v }

func typePtr(t transaction.Type) *transaction.Type { return &t }

// --- Create / Delete ---

func TestTransactionCreate_AppliesSignedAmount(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	acct := f.personalAccount(userID, 100000)

	income, err := svc.Create(ctx, userID, CreateTransactionRequest{
		AccountID: acct.ID, Amount: 30000, Type: transaction.TypeIncome, Description: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(130000), f.accounts.Balance(acct.ID))
	assert.Equal(t, userID, income.UserID)

	_, err = svc.Create(ctx, userID, CreateTransactionRequest{
		AccountID: acct.ID, Amount: 4500, Type: transaction.TypeExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(125500), f.accounts.Balance(acct.ID))
	assert.Equal(t, 2, f.txs.Count())
}

func TestTransactionDelete_RestoresBalance(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	acct := f.personalAccount(userID, 100000)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: acct.ID, Amount: 30000, Type: transaction.TypeIncome})
	require.NoError(t, err)
	require.Equal(t, int64(130000), f.accounts.Balance(acct.ID))

	require.NoError(t, svc.Delete(ctx, userID, tx.ID))
	assert.Equal(t, int64(100000), f.accounts.Balance(acct.ID))
	assert.Nil(t, f.txs.Stored(tx.ID))
}

func TestTransactionCreate_Validation(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	userID := uuid.New()
	acct := f.personalAccount(userID, 0)

	tests := []struct {
		name string
		req  CreateTransactionRequest
		want error
	}{
		{"zero amount", CreateTransactionRequest{AccountID: acct.ID, Amount: 0, Type: transaction.TypeIncome}, domainErrors.ErrInvalidAmount},
		{"negative amount", CreateTransactionRequest{AccountID: acct.ID, Amount: -5, Type: transaction.TypeIncome}, domainErrors.ErrInvalidAmount},
		{"bad type", CreateTransactionRequest{AccountID: acct.ID, Amount: 5, Type: "TRANSFER"}, domainErrors.ErrInvalidType},
		{"no account", CreateTransactionRequest{Amount: 5, Type: transaction.TypeIncome}, domainErrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, int64(0), f.accounts.Balance(acct.ID))
}

func TestTransactionCreate_ForeignAccountNotFound(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	owner, intruder := uuid.New(), uuid.New()
	acct := f.personalAccount(owner, 5000)

	_, err := svc.Create(context.Background(), intruder, CreateTransactionRequest{
		AccountID: acct.ID, Amount: 100, Type: transaction.TypeExpense,
	})
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
	assert.Equal(t, int64(5000), f.accounts.Balance(acct.ID))
}

func TestTransactionCreate_CategoryOfAnotherUser(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	userID := uuid.New()
	acct := f.personalAccount(userID, 0)
	foreign := testutil.NewTestCategory(uuid.New(), "Groceries", nil)
	f.categories.AddCategory(foreign)

	_, err := svc.Create(context.Background(), userID, CreateTransactionRequest{
		AccountID: acct.ID, CategoryID: &foreign.ID, Amount: 100, Type: transaction.TypeExpense,
	})
	assert.ErrorIs(t, err, domainErrors.ErrCategoryNotFound)
	assert.Equal(t, 0, f.txs.Count())
}

func TestTransactionCreate_BalanceFailureRollsBack(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	userID := uuid.New()
	acct := f.personalAccount(userID, 1000)
	f.accounts.ApplyDeltaFunc = func(ctx context.Context, id uuid.UUID, delta int64) error {
		return assert.AnError
	}

	_, err := svc.Create(context.Background(), userID, CreateTransactionRequest{
		AccountID: acct.ID, Amount: 100, Type: transaction.TypeIncome,
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, f.txs.Count())
	assert.Equal(t, int64(1000), f.accounts.Balance(acct.ID))
}

// --- Update ---

func TestTransactionUpdate_AppliesDifference(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	acct := f.personalAccount(userID, 100000)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: acct.ID, Amount: 30000, Type: transaction.TypeIncome})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, userID, tx.ID, transaction.Patch{Amount: int64Ptr(50000)})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), updated.Amount)
	assert.Equal(t, int64(150000), f.accounts.Balance(acct.ID))
	assert.True(t, tx.Date.Equal(updated.Date))
}

func TestTransactionUpdate_FlipType(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	acct := f.personalAccount(userID, 10000)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: acct.ID, Amount: 2000, Type: transaction.TypeIncome})
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, tx.ID, transaction.Patch{Type: typePtr(transaction.TypeExpense)})
	require.NoError(t, err)
	assert.Equal(t, int64(8000), f.accounts.Balance(acct.ID))
}

func TestTransactionUpdate_MoveAccount(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	from := f.personalAccount(userID, 10000)
	to := f.personalAccount(userID, 0)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: from.ID, Amount: 2500, Type: transaction.TypeExpense})
	require.NoError(t, err)
	require.Equal(t, int64(7500), f.accounts.Balance(from.ID))

	_, err = svc.Update(ctx, userID, tx.ID, transaction.Patch{AccountID: &to.ID, Amount: int64Ptr(1000)})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), f.accounts.Balance(from.ID))
	assert.Equal(t, int64(-1000), f.accounts.Balance(to.ID))
	assert.Equal(t, to.ID, f.txs.Stored(tx.ID).AccountID)
}

func TestTransactionUpdate_MoveToForeignAccountRollsBack(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	from := f.personalAccount(userID, 10000)
	foreign := f.personalAccount(uuid.New(), 0)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: from.ID, Amount: 2500, Type: transaction.TypeExpense})
	require.NoError(t, err)

	_, err = svc.Update(ctx, userID, tx.ID, transaction.Patch{AccountID: &foreign.ID})
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
	assert.Equal(t, from.ID, f.txs.Stored(tx.ID).AccountID)
	assert.Equal(t, int64(7500), f.accounts.Balance(from.ID))
	assert.Equal(t, int64(0), f.accounts.Balance(foreign.ID))
}

func TestTransactionUpdate_BalanceFailureRollsBack(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	acct := f.personalAccount(userID, 1000)

	tx, err := svc.Create(ctx, userID, CreateTransactionRequest{AccountID: acct.ID, Amount: 300, Type: transaction.TypeIncome})
	require.NoError(t, err)

	f.accounts.ApplyDeltaFunc = func(ctx context.Context, id uuid.UUID, delta int64) error {
		return assert.AnError
	}
	_, err = svc.Update(ctx, userID, tx.ID, transaction.Patch{Amount: int64Ptr(900)})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(300), f.txs.Stored(tx.ID).Amount)
	assert.Equal(t, int64(1300), f.accounts.Balance(acct.ID))
}

func TestTransactionUpdate_HiddenFromOtherUsers(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	owner := uuid.New()
	acct := f.personalAccount(owner, 0)
	tx, err := svc.Create(ctx, owner, CreateTransactionRequest{AccountID: acct.ID, Amount: 100, Type: transaction.TypeIncome})
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), tx.ID, transaction.Patch{Amount: int64Ptr(1)})
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), tx.ID), domainErrors.ErrTransactionNotFound)
	_, err = svc.Get(ctx, uuid.New(), tx.ID)
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}

// --- Family accounts ---

func TestTransactionCreate_FamilyAccountInvalidatesEveryMember(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	owner, member := uuid.New(), uuid.New()
	fam, members := testutil.NewTestFamily(owner, member)
	f.families.AddFamily(fam, members...)
	shared := testutil.NewTestFamilyAccount(fam.ID, 0)
	f.accounts.AddAccount(shared)

	_, err := svc.Create(context.Background(), member, CreateTransactionRequest{
		AccountID: shared.ID, Amount: 700, Type: transaction.TypeExpense,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(-700), f.accounts.Balance(shared.ID))
	assert.Equal(t, 1, f.cache.Invalidations[owner])
	assert.Equal(t, 1, f.cache.Invalidations[member])
}

// --- List ---

func TestTransactionList_ScopesAndFilters(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	ctx := context.Background()
	userID := uuid.New()
	mine := f.personalAccount(userID, 0)
	theirs := f.personalAccount(uuid.New(), 0)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f.txs.AddTransaction(testutil.NewTestTransaction(userID, mine.ID, 100, transaction.TypeIncome, day))
	f.txs.AddTransaction(testutil.NewTestTransaction(userID, mine.ID, 200, transaction.TypeExpense, day.AddDate(0, 0, 1)))
	f.txs.AddTransaction(testutil.NewTestTransaction(userID, theirs.ID, 300, transaction.TypeExpense, day))

	all, err := svc.List(ctx, userID, ListTransactionsRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(200), all[0].Amount)

	expenses, err := svc.List(ctx, userID, ListTransactionsRequest{Type: typePtr(transaction.TypeExpense)})
	require.NoError(t, err)
	require.Len(t, expenses, 1)

	_, err = svc.List(ctx, userID, ListTransactionsRequest{AccountID: &theirs.ID})
	assert.ErrorIs(t, err, domainErrors.ErrAccountNotFound)
}

func TestTransactionList_LimitDefaults(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	var got transaction.ListFilter
	f.txs.ListFunc = func(ctx context.Context, lf transaction.ListFilter) ([]*transaction.Transaction, error) {
		got = lf
		return nil, nil
	}

	_, err := svc.List(context.Background(), uuid.New(), ListTransactionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, got.Limit)

	_, err = svc.List(context.Background(), uuid.New(), ListTransactionsRequest{Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, maxListLimit, got.Limit)
}

func TestTransactionList_InvertedRange(t *testing.T) {
	f := newLedgerFixture()
	svc := f.transactionService()
	start := time.Now()
	end := start.Add(-time.Hour)

	_, err := svc.List(context.Background(), uuid.New(), ListTransactionsRequest{Start: &start, End: &end})
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
}
