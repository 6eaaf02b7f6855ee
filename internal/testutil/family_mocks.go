package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/cassiomorais/finance/internal/domain/category"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
)

// --- Family Repository Mock ---

// MockFamilyRepository is a mock implementation of family.Repository.
type MockFamilyRepository struct {
	mu          sync.Mutex
	families    map[uuid.UUID]family.FamilyAccount
	members     map[uuid.UUID]map[uuid.UUID]family.Member
	invitations map[uuid.UUID]family.Invitation

	AddMemberFunc func(ctx context.Context, m *family.Member) error
}

func NewMockFamilyRepository() *MockFamilyRepository {
	return &MockFamilyRepository{
		families:    make(map[uuid.UUID]family.FamilyAccount),
		members:     make(map[uuid.UUID]map[uuid.UUID]family.Member),
		invitations: make(map[uuid.UUID]family.Invitation),
	}
}

// AddFamily pre-populates the mock with a family and its members.
func (m *MockFamilyRepository) AddFamily(f *family.FamilyAccount, members ...*family.Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families[f.ID] = *f
	for _, mem := range members {
		m.addMember(*mem)
	}
}

// IsMember reports whether userID belongs to familyID.
func (m *MockFamilyRepository) IsMember(familyID, userID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[familyID][userID]
	return ok
}

// Invitation returns a copy of the stored invitation or nil.
func (m *MockFamilyRepository) Invitation(id uuid.UUID) *family.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil
	}
	return &inv
}

func (m *MockFamilyRepository) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	families := make(map[uuid.UUID]family.FamilyAccount, len(m.families))
	for k, v := range m.families {
		families[k] = v
	}
	members := make(map[uuid.UUID]map[uuid.UUID]family.Member, len(m.members))
	for k, v := range m.members {
		inner := make(map[uuid.UUID]family.Member, len(v))
		for u, mem := range v {
			inner[u] = mem
		}
		members[k] = inner
	}
	invitations := make(map[uuid.UUID]family.Invitation, len(m.invitations))
	for k, v := range m.invitations {
		invitations[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.families, m.members, m.invitations = families, members, invitations
	}
}

func (m *MockFamilyRepository) addMember(mem family.Member) {
	if m.members[mem.FamilyAccountID] == nil {
		m.members[mem.FamilyAccountID] = make(map[uuid.UUID]family.Member)
	}
	m.members[mem.FamilyAccountID][mem.UserID] = mem
}

func (m *MockFamilyRepository) withMembers(f family.FamilyAccount) *family.FamilyAccount {
	f.Members = m.memberList(f.ID)
	return &f
}

func (m *MockFamilyRepository) memberList(familyID uuid.UUID) []*family.Member {
	out := make([]*family.Member, 0, len(m.members[familyID]))
	for _, mem := range m.members[familyID] {
		mem := mem
		out = append(out, &mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func (m *MockFamilyRepository) Create(ctx context.Context, f *family.FamilyAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.families[f.ID] = *f
	return nil
}

func (m *MockFamilyRepository) GetByID(ctx context.Context, id uuid.UUID) (*family.FamilyAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.families[id]
	if !ok {
		return nil, domainErrors.ErrFamilyNotFound
	}
	return m.withMembers(f), nil
}

func (m *MockFamilyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*family.FamilyAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*family.FamilyAccount, 0)
	for id, f := range m.families {
		if _, ok := m.members[id][userID]; ok {
			out = append(out, m.withMembers(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockFamilyRepository) AddMember(ctx context.Context, mem *family.Member) error {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, mem)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.families[mem.FamilyAccountID]; !ok {
		return domainErrors.ErrFamilyNotFound
	}
	if _, ok := m.members[mem.FamilyAccountID][mem.UserID]; ok {
		return domainErrors.ErrAlreadyMember
	}
	m.addMember(*mem)
	return nil
}

func (m *MockFamilyRepository) GetMember(ctx context.Context, familyAccountID, userID uuid.UUID) (*family.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.members[familyAccountID][userID]
	if !ok {
		return nil, domainErrors.ErrFamilyNotFound
	}
	return &mem, nil
}

func (m *MockFamilyRepository) ListMembers(ctx context.Context, familyAccountID uuid.UUID) ([]*family.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memberList(familyAccountID), nil
}

func (m *MockFamilyRepository) RemoveMember(ctx context.Context, familyAccountID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[familyAccountID][userID]; !ok {
		return domainErrors.ErrUserNotFound
	}
	delete(m.members[familyAccountID], userID)
	return nil
}

func (m *MockFamilyRepository) CreateInvitation(ctx context.Context, inv *family.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invitations {
		if existing.FamilyAccountID == inv.FamilyAccountID && existing.InvitedUserID == inv.InvitedUserID &&
			existing.Status == family.InvitationPending {
			return domainErrors.ErrInvitationPending
		}
	}
	stored := *inv
	stored.FamilyName = m.families[inv.FamilyAccountID].Name
	m.invitations[inv.ID] = stored
	return nil
}

func (m *MockFamilyRepository) LockInvitation(ctx context.Context, id uuid.UUID) (*family.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, domainErrors.ErrInvitationNotFound
	}
	return &inv, nil
}

func (m *MockFamilyRepository) FindPendingInvitation(ctx context.Context, familyAccountID, userID uuid.UUID) (*family.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.FamilyAccountID == familyAccountID && inv.InvitedUserID == userID && inv.Status == family.InvitationPending {
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *MockFamilyRepository) ListPendingInvitations(ctx context.Context, userID uuid.UUID) ([]*family.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*family.Invitation, 0)
	for _, inv := range m.invitations {
		if inv.InvitedUserID == userID && inv.Status == family.InvitationPending {
			inv := inv
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (m *MockFamilyRepository) UpdateInvitation(ctx context.Context, inv *family.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invitations[inv.ID]; !ok {
		return domainErrors.ErrInvitationNotFound
	}
	m.invitations[inv.ID] = *inv
	return nil
}

// --- Category Repository Mock ---

// MockCategoryRepository is a mock implementation of category.Repository.
type MockCategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]category.Category

	ListByUserFunc func(ctx context.Context, userID uuid.UUID, typ *transaction.Type) ([]*category.Category, error)
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{categories: make(map[uuid.UUID]category.Category)}
}

// AddCategory pre-populates the mock.
func (m *MockCategoryRepository) AddCategory(c *category.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *category.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	return nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, domainErrors.ErrCategoryNotFound
	}
	return &c, nil
}

func (m *MockCategoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, typ *transaction.Type) ([]*category.Category, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, typ)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*category.Category, 0)
	for _, c := range m.categories {
		if c.UserID != userID || (typ != nil && c.Type != *typ) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *category.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return domainErrors.ErrCategoryNotFound
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return domainErrors.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}
