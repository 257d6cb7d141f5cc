package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const (
	// ScopeKey is the context key for storing the active database scope.
	ScopeKey contextKey = "dbScope"
)

// Querier is the statement surface shared by pools, connections and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Scope is the connection a repository call runs on. When InTx is true, Conn is a
// pgx.Tx and every statement issued through it commits or rolls back together.
type Scope struct {
	Conn Querier
	InTx bool
}

// GetScope retrieves the database scope from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok
}

// SetScope stores the database scope in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	scope, ok := GetScope(ctx)
	return ok && scope.InTx
}
