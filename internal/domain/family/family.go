package family

import (
	"strings"
	"time"

	"github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

// FamilyAccount groups users around shared accounts.
type FamilyAccount struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Members     []*Member
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewFamilyAccount(name string, description *string) (*FamilyAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	now := time.Now().UTC()
	return &FamilyAccount{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Member is a user's membership of a family. UserName and UserEmail are
// filled on reads for display.
type Member struct {
	ID              uuid.UUID
	FamilyAccountID uuid.UUID
	UserID          uuid.UUID
	Role            Role
	UserName        string
	UserEmail       string
	JoinedAt        time.Time
}

func NewMember(familyAccountID, userID uuid.UUID, role Role) *Member {
	return &Member{
		ID:              uuid.New(),
		FamilyAccountID: familyAccountID,
		UserID:          userID,
		Role:            role,
		JoinedAt:        time.Now().UTC(),
	}
}

func (m *Member) IsOwner() bool {
	return m.Role == RoleOwner
}

// Invitation is a PENDING -> ACCEPTED state machine keyed by family and invitee.
type Invitation struct {
	ID              uuid.UUID
	FamilyAccountID uuid.UUID
	InvitedUserID   uuid.UUID
	InvitedByID     uuid.UUID
	Status          InvitationStatus
	FamilyName      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewInvitation(familyAccountID, invitedUserID, invitedByID uuid.UUID) *Invitation {
	now := time.Now().UTC()
	return &Invitation{
		ID:              uuid.New(),
		FamilyAccountID: familyAccountID,
		InvitedUserID:   invitedUserID,
		InvitedByID:     invitedByID,
		Status:          InvitationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Accept transitions the invitation on behalf of userID.
func (i *Invitation) Accept(userID uuid.UUID) error {
	if i.InvitedUserID != userID {
		return errors.ErrInvitationNotFound
	}
	if i.Status != InvitationPending {
		return errors.ErrInvitationProcessed
	}
	i.Status = InvitationAccepted
	i.UpdatedAt = time.Now().UTC()
	return nil
}
