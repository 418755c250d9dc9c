package main

import (
	"context"
	"database/sql"
	"time"

	txcontext "drawcore/pkg/platform/tx"

	dErrors "drawcore/pkg/domain-errors"
)

const defaultRoundTxTimeout = 5 * time.Second

// roundPostgresTx runs a service transaction inside one database transaction.
// The *sql.Tx travels via context so every store call within fn lands on it.
type roundPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRoundPostgresTx(db *sql.DB) *roundPostgresTx {
	return &roundPostgresTx{db: db}
}

func (t *roundPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRoundTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
