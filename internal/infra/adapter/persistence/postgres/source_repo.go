package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"
)

type SourceRepo struct{ db DB }

func NewSourceRepo(db DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, name, kind, url, status, last_checked_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*entity.Source, error) {
	var (
		source  entity.Source
		status  string
		checked sql.NullTime
	)
	if err := row.Scan(&source.ID, &source.Name, &source.Kind, &source.URL, &status, &checked, &source.CreatedAt); err != nil {
		return nil, err
	}
	source.Status = entity.SourceStatus(status)
	if checked.Valid {
		t := checked.Time
		source.LastCheckedAt = &t
	}
	return &source, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1 LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) List(ctx context.Context) ([]*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE status <> 'deleted' ORDER BY id ASC`
	sources, err := repo.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return sources, nil
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE status = 'active' ORDER BY name ASC`
	sources, err := repo.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	return sources, nil
}

func (repo *SourceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Source, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 16)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.Source) error {
	if source.Status == "" {
		source.Status = entity.SourceStatusActive
	}
	const query = `
INSERT INTO sources (name, kind, url, status, last_checked_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		source.Name, source.Kind, source.URL, string(source.Status), source.LastCheckedAt,
	).Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, source *entity.Source) error {
	const query = `
UPDATE sources SET
       name            = $1,
       kind            = $2,
       url             = $3,
       status          = $4,
       last_checked_at = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.Kind, source.URL, string(source.Status), source.LastCheckedAt, source.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRow("Update", res)
}

func (repo *SourceRepo) SoftDelete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE sources SET status = 'deleted' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("SoftDelete: %w", err)
	}
	return requireRow("SoftDelete", res)
}

func (repo *SourceRepo) TouchCheckedAt(ctx context.Context, id int64, t time.Time) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE sources SET last_checked_at = $1 WHERE id = $2`, t, id); err != nil {
		return fmt.Errorf("TouchCheckedAt: %w", err)
	}
	return nil
}

func requireRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrNotFound)
	}
	return nil
}
