// Package dbx holds the minimal database plumbing shared by relational
// stores: a querier interface satisfied by both *sql.DB and *sql.Tx, and a
// transaction wrapper. The transaction boundary itself belongs to the caller;
// store methods are single logical writes.
package dbx

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql the stores need. Passing a *sql.Tx
// scopes a store to an externally owned transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction, committing on success and rolling back
// on error or panic. Panics are rethrown after rollback.
func InTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
