package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// WithTx runs fn inside a transaction on db. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics. The error
// from fn is returned unchanged. Transactions must not be nested: fn receives
// the *sql.Tx and must issue every statement through it.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("rollback failed", "err", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
