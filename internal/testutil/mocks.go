package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

// Snapshotter is implemented by the in-memory repositories so that
// MockTransactionManager can roll them back when fn fails.
type Snapshotter interface {
	Snapshot() (restore func())
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs fn directly. Repositories passed to the
// constructor are restored to their state before fn when it returns an error,
// and transactions are serialized so concurrent callers behave like row locks.
type MockTransactionManager struct {
	mu    sync.Mutex
	repos []Snapshotter

	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager(repos ...Snapshotter) *MockTransactionManager {
	return &MockTransactionManager{repos: repos}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.repos))
	for _, r := range m.repos {
		restores = append(restores, r.Snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// --- Account Repository Mock ---

// MockAccountRepository is a mock implementation of account.Repository.
// Family accounts are accessible through Families when it is set.
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]account.Account
	users    map[uuid.UUID]map[uuid.UUID]bool

	Families *MockFamilyRepository

	CreateFunc     func(ctx context.Context, a *account.Account) error
	ApplyDeltaFunc func(ctx context.Context, id uuid.UUID, delta int64) error
	DriftFunc      func(ctx context.Context) ([]account.BalanceDrift, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[uuid.UUID]account.Account),
		users:    make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// AddAccount pre-populates the mock with an account owned by userIDs.
func (m *MockAccountRepository) AddAccount(a *account.Account, userIDs ...uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	for _, u := range userIDs {
		m.link(a.ID, u)
	}
}

// Balance returns the stored balance (test helper, no context needed).
func (m *MockAccountRepository) Balance(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance
}

// GetAccountByID returns a copy of the stored account or nil.
func (m *MockAccountRepository) GetAccountByID(id uuid.UUID) *account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	return &a
}

// IsLinked reports whether an account_users row exists.
func (m *MockAccountRepository) IsLinked(accountID, userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[accountID][userID]
}

func (m *MockAccountRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make(map[uuid.UUID]account.Account, len(m.accounts))
	for k, v := range m.accounts {
		accounts[k] = v
	}
	users := make(map[uuid.UUID]map[uuid.UUID]bool, len(m.users))
	for k, v := range m.users {
		inner := make(map[uuid.UUID]bool, len(v))
		for u := range v {
			inner[u] = true
		}
		users[k] = inner
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.accounts, m.users = accounts, users
	}
}

func (m *MockAccountRepository) link(accountID, userID uuid.UUID) {
	if m.users[accountID] == nil {
		m.users[accountID] = make(map[uuid.UUID]bool)
	}
	m.users[accountID][userID] = true
}

func (m *MockAccountRepository) accessible(a account.Account, userID uuid.UUID) bool {
	if m.users[a.ID][userID] {
		return true
	}
	return a.FamilyAccountID != nil && m.Families != nil && m.Families.IsMember(*a.FamilyAccountID, userID)
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = *a
	return nil
}

func (m *MockAccountRepository) AddUser(ctx context.Context, accountID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.link(accountID, userID)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domainErrors.ErrAccountNotFound
	}
	return &a, nil
}

func (m *MockAccountRepository) GetAccessible(ctx context.Context, id, userID uuid.UUID) (*account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || !m.accessible(a, userID) {
		return nil, domainErrors.ErrAccountNotFound
	}
	return &a, nil
}

func (m *MockAccountRepository) ListPersonal(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	return m.filter(func(a account.Account) bool {
		return a.FamilyAccountID == nil && m.users[a.ID][userID]
	}), nil
}

func (m *MockAccountRepository) ListByFamily(ctx context.Context, familyAccountID uuid.UUID) ([]*account.Account, error) {
	return m.filter(func(a account.Account) bool {
		return a.FamilyAccountID != nil && *a.FamilyAccountID == familyAccountID
	}), nil
}

func (m *MockAccountRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	return m.filter(func(a account.Account) bool { return m.accessible(a, userID) }), nil
}

func (m *MockAccountRepository) filter(keep func(a account.Account) bool) []*account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*account.Account, 0)
	for _, a := range m.accounts {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MockAccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error {
	if m.ApplyDeltaFunc != nil {
		return m.ApplyDeltaFunc(ctx, id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domainErrors.ErrAccountNotFound
	}
	a.Balance += delta
	m.accounts[id] = a
	return nil
}

func (m *MockAccountRepository) Drift(ctx context.Context) ([]account.BalanceDrift, error) {
	if m.DriftFunc != nil {
		return m.DriftFunc(ctx)
	}
	return nil, nil
}

// --- Transaction Repository Mock ---

// MockTransactionRepository is a mock implementation of transaction.Repository.
// When Accounts is set List scopes by accessible accounts, otherwise by UserID.
type MockTransactionRepository struct {
	mu  sync.Mutex
	txs map[uuid.UUID]transaction.Transaction

	Accounts *MockAccountRepository

	CreateFunc func(ctx context.Context, t *transaction.Transaction) error
	UpdateFunc func(ctx context.Context, t *transaction.Transaction) error
	ListFunc   func(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{txs: make(map[uuid.UUID]transaction.Transaction)}
}

// AddTransaction pre-populates the mock without touching balances.
func (m *MockTransactionRepository) AddTransaction(t *transaction.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[t.ID] = *t
}

// Stored returns a copy of the stored transaction or nil.
func (m *MockTransactionRepository) Stored(id uuid.UUID) *transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok {
		return nil
	}
	return &t
}

func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}

func (m *MockTransactionRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := make(map[uuid.UUID]transaction.Transaction, len(m.txs))
	for k, v := range m.txs {
		txs[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.txs = txs
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[t.ID] = *t
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	return &t, nil
}

func (m *MockTransactionRepository) Lock(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[t.ID]; !ok {
		return domainErrors.ErrTransactionNotFound
	}
	m.txs[t.ID] = *t
	return nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return domainErrors.ErrTransactionNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *MockTransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	var visible map[uuid.UUID]bool
	if m.Accounts != nil {
		accts, _ := m.Accounts.ListAccessible(ctx, f.UserID)
		visible = make(map[uuid.UUID]bool, len(accts))
		for _, a := range accts {
			visible[a.ID] = true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*transaction.Transaction, 0)
	for _, t := range m.txs {
		switch {
		case visible != nil && !visible[t.AccountID]:
			continue
		case visible == nil && t.UserID != f.UserID:
			continue
		case f.AccountID != nil && t.AccountID != *f.AccountID:
			continue
		case f.Type != nil && t.Type != *f.Type:
			continue
		case f.Start != nil && t.Date.Before(*f.Start):
			continue
		case f.End != nil && !t.Date.Before(*f.End):
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*transaction.Transaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
