package service

import (
	"bytes"
	"context"
	"testing"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/cassiomorais/finance/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFamilyService() (*FamilyService, *ledgerFixture) {
	f := newLedgerFixture()
	return NewFamilyService(f.families, f.users, f.authz, f.txManager, f.invalidate), f
}

func (f *ledgerFixture) registeredUser(email string) uuid.UUID {
	u := testutil.NewTestUser(email, "hash")
	f.users.AddUser(u)
	return u.ID
}

func TestFamilyCreate_OwnerIsMember(t *testing.T) {
	svc, f := setupFamilyService()
	owner := uuid.New()

	fam, err := svc.Create(context.Background(), owner, "The Smiths", nil)
	require.NoError(t, err)
	require.Len(t, fam.Members, 1)
	assert.Equal(t, owner, fam.Members[0].UserID)
	assert.Equal(t, family.RoleOwner, fam.Members[0].Role)
	assert.True(t, f.families.IsMember(fam.ID, owner))
}

func TestFamilyCreate_MemberFailureRollsBack(t *testing.T) {
	svc, f := setupFamilyService()
	owner := uuid.New()
	f.families.AddMemberFunc = func(ctx context.Context, m *family.Member) error {
		return assert.AnError
	}

	_, err := svc.Create(context.Background(), owner, "The Smiths", nil)
	assert.ErrorIs(t, err, assert.AnError)

	list, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFamilyGet_OutsiderForbidden(t *testing.T) {
	svc, f := setupFamilyService()
	owner := uuid.New()
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)

	_, err := svc.Get(context.Background(), uuid.New(), fam.ID)
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrFamilyNotFound)
}

func TestFamilyInviteAndAccept(t *testing.T) {
	svc, f := setupFamilyService()
	ctx := context.Background()
	owner := uuid.New()
	inviteeID := f.registeredUser("bob@example.com")
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)

	inv, err := svc.Invite(ctx, owner, fam.ID, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, family.InvitationPending, inv.Status)

	_, err = svc.Invite(ctx, owner, fam.ID, "bob@example.com")
	assert.ErrorIs(t, err, domainErrors.ErrInvitationPending)

	pending, err := svc.ListInvitations(ctx, inviteeID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Family", pending[0].FamilyName)

	joined, err := svc.Accept(ctx, inviteeID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, joined.Members, 2)
	assert.True(t, f.families.IsMember(fam.ID, inviteeID))
	assert.Equal(t, family.InvitationAccepted, f.families.Invitation(inv.ID).Status)
	assert.Equal(t, 1, f.cache.Invalidations[inviteeID])

	_, err = svc.Accept(ctx, inviteeID, inv.ID)
	assert.ErrorIs(t, err, domainErrors.ErrInvitationProcessed)

	_, err = svc.Invite(ctx, owner, fam.ID, "bob@example.com")
	assert.ErrorIs(t, err, domainErrors.ErrAlreadyMember)
}

func TestFamilyInvite_Errors(t *testing.T) {
	svc, f := setupFamilyService()
	ctx := context.Background()
	owner := uuid.New()
	f.registeredUser("bob@example.com")
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)

	_, err := svc.Invite(ctx, owner, fam.ID, "nobody@example.com")
	assert.ErrorIs(t, err, domainErrors.ErrUserNotFound)

	_, err = svc.Invite(ctx, uuid.New(), fam.ID, "bob@example.com")
	assert.ErrorIs(t, err, domainErrors.ErrForbidden)
}

func TestFamilyAccept_WrongInvitee(t *testing.T) {
	svc, f := setupFamilyService()
	ctx := context.Background()
	owner := uuid.New()
	f.registeredUser("bob@example.com")
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)
	inv, err := svc.Invite(ctx, owner, fam.ID, "bob@example.com")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, uuid.New(), inv.ID)
	assert.ErrorIs(t, err, domainErrors.ErrInvitationNotFound)
	assert.Equal(t, family.InvitationPending, f.families.Invitation(inv.ID).Status)
}

func TestFamilyAccept_MemberFailureKeepsInvitationPending(t *testing.T) {
	svc, f := setupFamilyService()
	ctx := context.Background()
	owner := uuid.New()
	inviteeID := f.registeredUser("bob@example.com")
	fam, members := testutil.NewTestFamily(owner)
	f.families.AddFamily(fam, members...)
	inv, err := svc.Invite(ctx, owner, fam.ID, "bob@example.com")
	require.NoError(t, err)

	f.families.AddMemberFunc = func(ctx context.Context, m *family.Member) error {
		return assert.AnError
	}
	_, err = svc.Accept(ctx, inviteeID, inv.ID)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, family.InvitationPending, f.families.Invitation(inv.ID).Status)
}

func TestFamilyRemoveMember(t *testing.T) {
	svc, f := setupFamilyService()
	ctx := context.Background()
	owner, member := uuid.New(), uuid.New()
	fam, members := testutil.NewTestFamily(owner, member)
	f.families.AddFamily(fam, members...)

	assert.ErrorIs(t, svc.RemoveMember(ctx, member, fam.ID, owner), domainErrors.ErrForbidden)
	assert.ErrorIs(t, svc.RemoveMember(ctx, owner, fam.ID, owner), domainErrors.ErrOwnerCannotLeave)

	require.NoError(t, svc.RemoveMember(ctx, owner, fam.ID, member))
	assert.False(t, f.families.IsMember(fam.ID, member))
	assert.Equal(t, 1, f.cache.Invalidations[member])

	assert.ErrorIs(t, svc.RemoveMember(ctx, owner, fam.ID, member), domainErrors.ErrUserNotFound)
}

func TestFamilyRemoveMember_CacheFailureIsLogged(t *testing.T) {
	f := newLedgerFixture()
	var buf bytes.Buffer
	svc := NewFamilyService(f.families, f.users, f.authz, f.txManager,
		NewCacheInvalidator(f.cache, f.families, zerolog.New(&buf)))
	ctx := context.Background()
	owner, member := uuid.New(), uuid.New()
	fam, members := testutil.NewTestFamily(owner, member)
	f.families.AddFamily(fam, members...)
	f.cache.InvalidateErr = assert.AnError

	require.NoError(t, svc.RemoveMember(ctx, owner, fam.ID, member))
	assert.False(t, f.families.IsMember(fam.ID, member))
	assert.Equal(t, 1, f.cache.Invalidations[member])
	assert.Contains(t, buf.String(), "invalidate summary cache")
	assert.Contains(t, buf.String(), member.String())
}
