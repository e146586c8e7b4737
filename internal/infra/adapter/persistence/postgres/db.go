// Package postgres implements the repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
)

// DB is satisfied by *sql.DB and circuitbreaker.DBCircuitBreaker.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
