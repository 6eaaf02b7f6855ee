package postgres

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/family"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FamilyRepository implements family.Repository using PostgreSQL.
type FamilyRepository struct {
	pool *pgxpool.Pool
}

// NewFamilyRepository creates a new FamilyRepository.
func NewFamilyRepository(pool *pgxpool.Pool) *FamilyRepository {
	return &FamilyRepository{pool: pool}
}

func (r *FamilyRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const (
	familyColumns = `f.id, f.name, f.description, f.created_at, f.updated_at`
	memberColumns = `m.id, m.family_account_id, m.user_id, m.role, u.name, u.email, m.joined_at`
	inviteColumns = `i.id, i.family_account_id, i.invited_user_id, i.invited_by_id, i.status, f.name, i.created_at, i.updated_at`
)

func scanFamily(s scanner) (*family.FamilyAccount, error) {
	f := &family.FamilyAccount{}
	if err := s.Scan(&f.ID, &f.Name, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrFamilyNotFound
		}
		return nil, fmt.Errorf("scan family account: %w", err)
	}
	return f, nil
}

func scanMember(s scanner) (*family.Member, error) {
	m := &family.Member{}
	var role string
	if err := s.Scan(&m.ID, &m.FamilyAccountID, &m.UserID, &role, &m.UserName, &m.UserEmail, &m.JoinedAt); err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrFamilyNotFound
		}
		return nil, fmt.Errorf("scan family member: %w", err)
	}
	m.Role = family.Role(role)
	return m, nil
}

func scanInvitation(s scanner) (*family.Invitation, error) {
	inv := &family.Invitation{}
	var status string
	err := s.Scan(&inv.ID, &inv.FamilyAccountID, &inv.InvitedUserID, &inv.InvitedByID, &status,
		&inv.FamilyName, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Status = family.InvitationStatus(status)
	return inv, nil
}

// Create inserts a family account.
func (r *FamilyRepository) Create(ctx context.Context, f *family.FamilyAccount) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO family_accounts (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Name, f.Description, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert family account: %w", err)
	}
	return nil
}

// GetByID retrieves a family account with its members.
func (r *FamilyRepository) GetByID(ctx context.Context, id uuid.UUID) (*family.FamilyAccount, error) {
	f, err := scanFamily(r.db(ctx).QueryRow(ctx,
		`SELECT `+familyColumns+` FROM family_accounts f WHERE f.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if f.Members, err = r.ListMembers(ctx, f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

// ListByUser lists the families a user belongs to, members included.
func (r *FamilyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*family.FamilyAccount, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+familyColumns+` FROM family_accounts f
		 JOIN family_members fm ON fm.family_account_id = f.id
		 WHERE fm.user_id = $1 ORDER BY f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list family accounts: %w", err)
	}

	families := make([]*family.FamilyAccount, 0)
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		families = append(families, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate family accounts: %w", err)
	}

	// rows must be closed before issuing more queries on a shared tx
	for _, f := range families {
		if f.Members, err = r.ListMembers(ctx, f.ID); err != nil {
			return nil, err
		}
	}
	return families, nil
}

// AddMember inserts a membership row.
func (r *FamilyRepository) AddMember(ctx context.Context, m *family.Member) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO family_members (id, family_account_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.FamilyAccountID, m.UserID, string(m.Role), m.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrAlreadyMember
		}
		return fmt.Errorf("insert family member: %w", err)
	}
	return nil
}

// GetMember retrieves the membership of userID in a family.
func (r *FamilyRepository) GetMember(ctx context.Context, familyAccountID, userID uuid.UUID) (*family.Member, error) {
	return scanMember(r.db(ctx).QueryRow(ctx,
		`SELECT `+memberColumns+` FROM family_members m JOIN users u ON u.id = m.user_id
		 WHERE m.family_account_id = $1 AND m.user_id = $2`, familyAccountID, userID))
}

// ListMembers lists the members of a family, owners first.
func (r *FamilyRepository) ListMembers(ctx context.Context, familyAccountID uuid.UUID) ([]*family.Member, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+memberColumns+` FROM family_members m JOIN users u ON u.id = m.user_id
		 WHERE m.family_account_id = $1 ORDER BY m.role DESC, m.joined_at`, familyAccountID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	defer rows.Close()

	members := make([]*family.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RemoveMember deletes a membership row.
func (r *FamilyRepository) RemoveMember(ctx context.Context, familyAccountID, userID uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx,
		`DELETE FROM family_members WHERE family_account_id = $1 AND user_id = $2`, familyAccountID, userID)
	if err != nil {
		return fmt.Errorf("remove family member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// CreateInvitation inserts an invitation.
func (r *FamilyRepository) CreateInvitation(ctx context.Context, inv *family.Invitation) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO family_invitations (id, family_account_id, invited_user_id, invited_by_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.FamilyAccountID, inv.InvitedUserID, inv.InvitedByID, string(inv.Status), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrInvitationPending
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// LockInvitation acquires a row-level lock on the invitation (SELECT FOR UPDATE).
func (r *FamilyRepository) LockInvitation(ctx context.Context, id uuid.UUID) (*family.Invitation, error) {
	return scanInvitation(r.db(ctx).QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM family_invitations i JOIN family_accounts f ON f.id = i.family_account_id
		 WHERE i.id = $1 FOR UPDATE OF i`, id))
}

// FindPendingInvitation returns the pending invitation for the pair, or nil.
func (r *FamilyRepository) FindPendingInvitation(ctx context.Context, familyAccountID, userID uuid.UUID) (*family.Invitation, error) {
	inv, err := scanInvitation(r.db(ctx).QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM family_invitations i JOIN family_accounts f ON f.id = i.family_account_id
		 WHERE i.family_account_id = $1 AND i.invited_user_id = $2 AND i.status = 'PENDING'`,
		familyAccountID, userID))
	if err == domainErrors.ErrInvitationNotFound {
		return nil, nil
	}
	return inv, err
}

// ListPendingInvitations lists the invitations waiting for userID.
func (r *FamilyRepository) ListPendingInvitations(ctx context.Context, userID uuid.UUID) ([]*family.Invitation, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+inviteColumns+` FROM family_invitations i JOIN family_accounts f ON f.id = i.family_account_id
		 WHERE i.invited_user_id = $1 AND i.status = 'PENDING' ORDER BY i.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]*family.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// UpdateInvitation persists the invitation status.
func (r *FamilyRepository) UpdateInvitation(ctx context.Context, inv *family.Invitation) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE family_invitations SET status = $1, updated_at = $2 WHERE id = $3`,
		string(inv.Status), inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvitationNotFound
	}
	return nil
}
