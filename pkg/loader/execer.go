package loader

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is the minimal interface needed to run a script.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxBeginner is implemented by *sql.DB and *sql.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Exec submits the whole script as one multi-statement execution. No
// arguments are bound, so each driver runs every statement in order:
// modernc sqlite steps through the statement tail, pgx and lib/pq send a
// simple query. Whether earlier statements persist when a later one fails is
// up to the backend.
func Exec(ctx context.Context, db Execer, script string) error {
	if _, err := db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("%w: %w", ErrExecute, newExecError(script, err))
	}
	return nil
}

// ExecInTx runs the script inside a single transaction. Any failure rolls
// back everything the script did.
func ExecInTx(ctx context.Context, db TxBeginner, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %w", ErrExecute, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := Exec(ctx, tx, script); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", ErrExecute, err)
	}
	return nil
}
