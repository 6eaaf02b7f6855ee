package testutil

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/token"
	"github.com/cassiomorais/finance/internal/domain/user"
	"github.com/google/uuid"
)

// --- User Repository Mock ---

// MockUserRepository is a mock implementation of user.Repository.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User

	CreateFunc     func(ctx context.Context, u *user.User) error
	GetByEmailFunc func(ctx context.Context, email string) (*user.User, error)
	UpdateFunc     func(ctx context.Context, u *user.User) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]user.User)}
}

// AddUser pre-populates the mock.
func (m *MockUserRepository) AddUser(u *user.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
}

// Stored returns a copy of the stored user or nil.
func (m *MockUserRepository) Stored(id uuid.UUID) *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (m *MockUserRepository) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range m.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, u.ID) {
		return domainErrors.ErrEmailTaken
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	return &u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domainErrors.ErrUserNotFound
}

func (m *MockUserRepository) GetByConfirmationToken(ctx context.Context, tok string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == tok {
			return &u, nil
		}
	}
	return nil, domainErrors.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domainErrors.ErrUserNotFound
	}
	if m.emailTaken(u.Email, u.ID) {
		return domainErrors.ErrEmailTaken
	}
	m.users[u.ID] = *u
	return nil
}

// --- Token Repository Mock ---

// MockTokenRepository is a mock implementation of token.Repository keyed by hash.
type MockTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]token.RefreshToken

	CreateFunc func(ctx context.Context, t *token.RefreshToken) error
	RevokeFunc func(ctx context.Context, t *token.RefreshToken) error
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{tokens: make(map[string]token.RefreshToken)}
}

// ByHash returns a copy of the stored row or nil.
func (m *MockTokenRepository) ByHash(hash string) *token.RefreshToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil
	}
	return &t
}

// Expire moves the expiry of the row matching hash into the past.
func (m *MockTokenRepository) Expire(hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok {
		t.ExpiresAt = time.Now().Add(-time.Minute)
		m.tokens[hash] = t
	}
}

func (m *MockTokenRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *MockTokenRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	tokens := make(map[string]token.RefreshToken, len(m.tokens))
	for k, v := range m.tokens {
		tokens[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.tokens = tokens
	}
}

func (m *MockTokenRepository) Create(ctx context.Context, t *token.RefreshToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.TokenHash] = *t
	return nil
}

func (m *MockTokenRepository) LockByHash(ctx context.Context, hash string) (*token.RefreshToken, error) {
	return m.GetByHash(ctx, hash)
}

func (m *MockTokenRepository) GetByHash(ctx context.Context, hash string) (*token.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok {
		return nil, domainErrors.ErrTokenNotFound
	}
	return &t, nil
}

func (m *MockTokenRepository) Revoke(ctx context.Context, t *token.RefreshToken) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.TokenHash]; !ok {
		return domainErrors.ErrTokenNotFound
	}
	m.tokens[t.TokenHash] = *t
	return nil
}

func (m *MockTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, h)
		}
	}
	return nil
}

func (m *MockTokenRepository) DeleteByHash(ctx context.Context, hash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[hash]; !ok {
		return 0, nil
	}
	delete(m.tokens, hash)
	return 1, nil
}

func (m *MockTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.deleteWhere(func(t token.RefreshToken) bool { return t.UserID == userID }), nil
}

func (m *MockTokenRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	return m.deleteWhere(func(t token.RefreshToken) bool { return t.ExpiresAt.Before(before) }), nil
}

func (m *MockTokenRepository) deleteWhere(match func(t token.RefreshToken) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.tokens {
		if match(t) {
			delete(m.tokens, h)
			n++
		}
	}
	return n
}
