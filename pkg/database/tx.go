package database

import (
	"context"
	"fmt"
)

// Transactor opens store scopes for services. Every logical operation that mutates
// state runs inside exactly one WithinTx call.
type Transactor interface {
	// WithinTx runs fn inside a transaction. The transaction commits when fn returns
	// nil and rolls back on error, panic or context cancellation. A ctx that already
	// carries a transaction joins it instead of opening a new one.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	// WithinConn runs fn on a pooled connection without a transaction (reads).
	WithinConn(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ Transactor = (*DB)(nil)

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", ClassifyError(err))
	}

	// Rollback must still reach the server after the caller's ctx is cancelled.
	rollbackCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(rollbackCtx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(rollbackCtx)
		}
	}()

	if err = fn(SetScope(ctx, &Scope{Conn: tx, InTx: true})); err != nil {
		return ClassifyError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ClassifyError(err))
	}

	return nil
}

func (db *DB) WithinConn(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := GetScope(ctx); ok {
		return fn(ctx)
	}
	return ClassifyError(fn(SetScope(ctx, &Scope{Conn: db.Pool})))
}
