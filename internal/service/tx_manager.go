package service

import "context"

// TransactionManager runs fn atomically. Every balance change and the ledger
// row that causes it go through one call, so either both persist or neither.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
