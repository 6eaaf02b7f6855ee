package postgres

import (
	"context"
	"fmt"
	"strings"

	domainErrors "github.com/cassiomorais/finance/internal/domain/errors"
	"github.com/cassiomorais/finance/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements transaction.Repository using PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const transactionColumns = `id, user_id, account_id, category_id, amount, type, description, date, created_at, updated_at`

func (r *TransactionRepository) scanTransaction(s scanner) (*transaction.Transaction, error) {
	t := &transaction.Transaction{}
	var (
		typ       string
		amountStr string
	)
	err := s.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &amountStr, &typ, &t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	if t.Amount, err = numericStringToCents(amountStr); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	t.Type = transaction.Type(typ)
	return t, nil
}

// Create inserts a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.AccountID, t.CategoryID, centsToNumericString(t.Amount), string(t.Type),
		t.Description, t.Date, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrAccountNotFound
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// Lock acquires a row-level lock on the transaction (SELECT FOR UPDATE).
func (r *TransactionRepository) Lock(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
}

// Update persists the mutable columns. date is never rewritten.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE transactions SET account_id = $1, category_id = $2, amount = $3, type = $4,
		 description = $5, updated_at = $6 WHERE id = $7`,
		t.AccountID, t.CategoryID, centsToNumericString(t.Amount), string(t.Type), t.Description, t.UpdatedAt, t.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrAccountNotFound
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// List returns transactions on accounts the user can access, newest first.
func (r *TransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	query, args := buildListQuery(f)
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*transaction.Transaction, 0)
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func buildListQuery(f transaction.ListFilter) (string, []any) {
	args := []any{f.UserID}
	conds := []string{`account_id IN (` + accessibleAccounts("$1") + `)`}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AccountID != nil {
		conds = append(conds, "account_id = "+next(*f.AccountID))
	}
	if f.Type != nil {
		conds = append(conds, "type = "+next(string(*f.Type)))
	}
	if f.Start != nil {
		conds = append(conds, "date >= "+next(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "date < "+next(*f.End))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += " LIMIT " + next(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + next(f.Offset)
	}
	return query, args
}
