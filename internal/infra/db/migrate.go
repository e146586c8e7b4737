package db

import (
	"context"
	"database/sql"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS sources (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL,
    kind            VARCHAR(32) NOT NULL,
    url             TEXT NOT NULL,
    status          VARCHAR(16) NOT NULL DEFAULT 'active',
    last_checked_at TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS events (
    id              BIGSERIAL PRIMARY KEY,
    source_id       BIGINT REFERENCES sources(id),
    source_kind     VARCHAR(32) NOT NULL DEFAULT '',
    title           TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    start_date      TIMESTAMPTZ NOT NULL,
    end_date        TIMESTAMPTZ NOT NULL,
    location        TEXT NOT NULL DEFAULT '',
    organizer       TEXT NOT NULL DEFAULT '',
    url             TEXT NOT NULL DEFAULT '',
    image_url       TEXT NOT NULL DEFAULT '',
    external_id     TEXT NOT NULL DEFAULT '',
    categories      TEXT[] NOT NULL DEFAULT '{}',
    relevance_score INTEGER NOT NULL DEFAULT 0,
    status          VARCHAR(16) NOT NULL DEFAULT 'draft',
    seo_title       TEXT NOT NULL DEFAULT '',
    seo_description TEXT NOT NULL DEFAULT '',
    imported_at     TIMESTAMPTZ NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS options (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
}

var indexes = []string{
	// event identity by URL; events without a URL fall back to title + date
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_url ON events(url) WHERE url <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_events_title_start ON events(title, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_source_id ON events(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_status ON sources(status) WHERE status = 'active'`,
}

// MigrateUp creates the tables and indexes. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	for _, stmt := range append(append([]string{}, tables...), indexes...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("MigrateUp: %w", err)
		}
	}
	return nil
}
