package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sactech-events/internal/repository"
)

type OptionRepo struct{ db DB }

func NewOptionRepo(db DB) repository.OptionRepository {
	return &OptionRepo{db: db}
}

func (repo *OptionRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := repo.db.QueryRowContext(ctx, `SELECT value FROM options WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Get %s: %w", key, err)
	}
	return value, true, nil
}

func (repo *OptionRepo) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO options (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := repo.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("Set %s: %w", key, err)
	}
	return nil
}
