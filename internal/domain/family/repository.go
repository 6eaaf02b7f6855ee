package family

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for family account persistence
type Repository interface {
	Create(ctx context.Context, f *FamilyAccount) error

	GetByID(ctx context.Context, id uuid.UUID) (*FamilyAccount, error)

	// ListByUser returns the families userID belongs to, members included
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*FamilyAccount, error)

	AddMember(ctx context.Context, m *Member) error

	// GetMember returns ErrFamilyNotFound when userID is not a member
	GetMember(ctx context.Context, familyAccountID, userID uuid.UUID) (*Member, error)

	ListMembers(ctx context.Context, familyAccountID uuid.UUID) ([]*Member, error)

	RemoveMember(ctx context.Context, familyAccountID, userID uuid.UUID) error

	CreateInvitation(ctx context.Context, inv *Invitation) error

	// LockInvitation retrieves an invitation with SELECT FOR UPDATE
	LockInvitation(ctx context.Context, id uuid.UUID) (*Invitation, error)

	// FindPendingInvitation returns nil, nil when there is none
	FindPendingInvitation(ctx context.Context, familyAccountID, userID uuid.UUID) (*Invitation, error)

	ListPendingInvitations(ctx context.Context, userID uuid.UUID) ([]*Invitation, error)

	UpdateInvitation(ctx context.Context, inv *Invitation) error
}
