package circuitbreaker

import (
	"context"
	"database/sql"
	"time"
)

// DBConfig returns breaker settings for the database handle.
// Opens after five straight failures and probes again after 30 seconds.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// DBCircuitBreaker guards a *sql.DB. It satisfies the query interface the
// postgres repositories accept, so it can be swapped in for the raw pool.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// NewDBCircuitBreaker wraps db with DBConfig settings.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(DBConfig()), db: db}
}

// QueryContext executes a query unless the circuit is open.
func (d *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return Do(d.cb, func() (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// ExecContext executes a statement unless the circuit is open.
func (d *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return Do(d.cb, func() (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

// QueryRowContext is passed straight through: *sql.Row defers its error to Scan,
// so the breaker cannot observe the outcome.
func (d *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// IsOpen reports whether database calls are currently rejected.
func (d *DBCircuitBreaker) IsOpen() bool {
	return d.cb.IsOpen()
}
