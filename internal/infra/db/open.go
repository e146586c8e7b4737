// Package db opens the Postgres pool and creates the schema.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sactech-events/internal/pkg/config"
	"sactech-events/internal/resilience/retry"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNoDSN is returned when DATABASE_URL is empty.
var ErrNoDSN = errors.New("DATABASE_URL not set")

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
// An import run holds at most a couple of connections, so the pool is small.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open opens dsn with the pgx driver, applies the pool settings from the
// environment and pings until the database answers (retry.DBConnectConfig).
func Open(ctx context.Context, dsn string, metrics *config.ConfigMetrics) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := ConnectionConfigFromEnv(metrics)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	if err := Ping(ctx, db, retry.DBConnectConfig()); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("database connection established successfully")
	return db, nil
}

// Ping retries db.PingContext according to cfg.
func Ping(ctx context.Context, db *sql.DB, cfg retry.Config) error {
	err := retry.WithBackoff(ctx, cfg, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// ConnectionConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values fall back
// to the defaults.
func ConnectionConfigFromEnv(metrics *config.ConfigMetrics) ConnectionConfig {
	def := DefaultConnectionConfig()
	cfg := def

	r := config.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, config.IntRange(1, 1000))
	metrics.Observe("db_max_open_conns", r)
	cfg.MaxOpenConns = r.Value.(int)

	r = config.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, config.IntRange(1, 1000))
	metrics.Observe("db_max_idle_conns", r)
	cfg.MaxIdleConns = r.Value.(int)

	r = config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration)
	metrics.Observe("db_conn_max_lifetime", r)
	cfg.ConnMaxLifetime = r.Value.(time.Duration)

	r = config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration)
	metrics.Observe("db_conn_max_idle_time", r)
	cfg.ConnMaxIdleTime = r.Value.(time.Duration)

	return cfg
}
