package postgres

import (
	"context"
	"fmt"

	"github.com/cassiomorais/finance/internal/domain/account"
	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const accountColumns = `a.id, a.name, a.type, a.balance, a.opening_balance, a.currency, a.color,
	a.family_account_id, a.created_at, a.updated_at`

// scanAccount scans an account from any source implementing the scanner interface.
func (r *AccountRepository) scanAccount(s scanner) (*account.Account, error) {
	a := &account.Account{}
	var (
		typ        string
		balanceStr string
		openingStr string
	)
	err := s.Scan(&a.ID, &a.Name, &typ, &balanceStr, &openingStr, &a.Currency, &a.Color,
		&a.FamilyAccountID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if a.Balance, err = numericStringToCents(balanceStr); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if a.OpeningBalance, err = numericStringToCents(openingStr); err != nil {
		return nil, fmt.Errorf("parse opening balance: %w", err)
	}
	a.Type = account.Type(typ)
	return a, nil
}

func (r *AccountRepository) scanAccounts(rows pgx.Rows) ([]*account.Account, error) {
	defer rows.Close()
	accounts := make([]*account.Account, 0)
	for rows.Next() {
		a, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO accounts (id, name, type, balance, opening_balance, currency, color, family_account_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Name, string(a.Type), centsToNumericString(a.Balance), centsToNumericString(a.OpeningBalance),
		a.Currency, a.Color, a.FamilyAccountID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrFamilyNotFound
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// AddUser links an account to a user.
func (r *AccountRepository) AddUser(ctx context.Context, accountID, userID uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO account_users (account_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		accountID, userID,
	)
	if err != nil {
		return fmt.Errorf("link account user: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.id = $1`, id))
}

// GetAccessible retrieves an account if userID may see it.
func (r *AccountRepository) GetAccessible(ctx context.Context, id, userID uuid.UUID) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts a
		 WHERE a.id = $1 AND a.id IN (`+accessibleAccounts("$2")+`)`, id, userID))
}

// ListPersonal lists the user's accounts that belong to no family.
func (r *AccountRepository) ListPersonal(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts a
		 JOIN account_users au ON au.account_id = a.id
		 WHERE au.user_id = $1 AND a.family_account_id IS NULL
		 ORDER BY a.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list personal accounts: %w", err)
	}
	return r.scanAccounts(rows)
}

// ListByFamily lists the accounts of a family.
func (r *AccountRepository) ListByFamily(ctx context.Context, familyAccountID uuid.UUID) ([]*account.Account, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts a WHERE a.family_account_id = $1 ORDER BY a.created_at`,
		familyAccountID)
	if err != nil {
		return nil, fmt.Errorf("list family accounts: %w", err)
	}
	return r.scanAccounts(rows)
}

// ListAccessible lists every account available to the user.
func (r *AccountRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts a
		 WHERE a.id IN (`+accessibleAccounts("$1")+`) ORDER BY a.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessible accounts: %w", err)
	}
	return r.scanAccounts(rows)
}

// ApplyDelta adds delta to the balance in a single statement so concurrent
// writers never lose updates.
func (r *AccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE accounts SET balance = balance + $1::numeric, updated_at = NOW() WHERE id = $2`,
		centsToNumericString(delta), id,
	)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAccountNotFound
	}
	return nil
}

// Drift compares each stored balance to opening balance plus its ledger.
func (r *AccountRepository) Drift(ctx context.Context) ([]account.BalanceDrift, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT a.id, a.balance,
		        a.opening_balance + COALESCE(SUM(CASE WHEN t.type = 'INCOME' THEN t.amount ELSE -t.amount END), 0)
		 FROM accounts a
		 LEFT JOIN transactions t ON t.account_id = a.id
		 GROUP BY a.id, a.balance, a.opening_balance
		 HAVING a.balance <> a.opening_balance + COALESCE(SUM(CASE WHEN t.type = 'INCOME' THEN t.amount ELSE -t.amount END), 0)`)
	if err != nil {
		return nil, fmt.Errorf("query balance drift: %w", err)
	}
	defer rows.Close()

	drifts := make([]account.BalanceDrift, 0)
	for rows.Next() {
		var (
			d           account.BalanceDrift
			storedStr   string
			expectedStr string
		)
		if err := rows.Scan(&d.AccountID, &storedStr, &expectedStr); err != nil {
			return nil, fmt.Errorf("scan balance drift: %w", err)
		}
		if d.Stored, err = numericStringToCents(storedStr); err != nil {
			return nil, fmt.Errorf("parse stored balance: %w", err)
		}
		if d.Expected, err = numericStringToCents(expectedStr); err != nil {
			return nil, fmt.Errorf("parse expected balance: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}
