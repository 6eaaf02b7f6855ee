package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// accessibleAccounts is a subquery of account ids the user bound to param can
// use: personal links plus accounts of families the user belongs to.
func accessibleAccounts(param string) string {
	return `SELECT au.account_id FROM account_users au WHERE au.user_id = ` + param + `
		UNION
		SELECT fa.id FROM accounts fa
		JOIN family_members fm ON fm.family_account_id = fa.family_account_id
		WHERE fm.user_id = ` + param
}

func nullableCents(s *string) (*int64, error) {
	if s == nil {
		return nil, nil
	}
	c, err := numericStringToCents(*s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func nullableNumeric(c *int64) *string {
	if c == nil {
		return nil
	}
	s := centsToNumericString(*c)
	return &s
}
