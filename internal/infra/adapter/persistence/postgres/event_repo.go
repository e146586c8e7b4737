package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"

	"github.com/lib/pq"
)

type EventRepo struct{ db DB }

func NewEventRepo(db DB) repository.EventRepository {
	return &EventRepo{db: db}
}

const eventColumns = `id, source_id, source_kind, title, description, start_date, end_date,
       location, organizer, url, image_url, external_id, categories, relevance_score,
       status, seo_title, seo_description, imported_at, created_at, updated_at`

func (repo *EventRepo) Get(ctx context.Context, id int64) (*entity.Event, error) {
	var (
		ev         entity.Event
		sourceID   sql.NullInt64
		categories pq.StringArray
		status     string
	)
	err := repo.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id).Scan(
		&ev.ID, &sourceID, &ev.SourceKind, &ev.Title, &ev.Description, &ev.StartDate, &ev.EndDate,
		&ev.Location, &ev.Organizer, &ev.URL, &ev.ImageURL, &ev.ExternalID, &categories, &ev.RelevanceScore,
		&status, &ev.SEOTitle, &ev.SEODescription, &ev.ImportedAt, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	ev.SourceID = sourceID.Int64
	ev.Categories = []string(categories)
	ev.Status = entity.EventStatus(status)
	return &ev, nil
}

func (repo *EventRepo) FindByURL(ctx context.Context, url string) (int64, error) {
	if url == "" {
		return 0, nil
	}
	return repo.findID(ctx, "FindByURL", `SELECT id FROM events WHERE url = $1 LIMIT 1`, url)
}

func (repo *EventRepo) FindByTitleAndDate(ctx context.Context, title string, day time.Time) (int64, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)
	const query = `
SELECT id FROM events
WHERE title = $1 AND start_date >= $2 AND start_date < $3
ORDER BY id ASC
LIMIT 1`
	return repo.findID(ctx, "FindByTitleAndDate", query, title, from, to)
}

func (repo *EventRepo) findID(ctx context.Context, op, query string, args ...any) (int64, error) {
	var id int64
	err := repo.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Create inserts event. A second row with the same non-empty URL is rejected
// by idx_events_url and reported as entity.ErrDuplicate.
func (repo *EventRepo) Create(ctx context.Context, event *entity.Event) (int64, error) {
	const query = `
INSERT INTO events (
    source_id, source_kind, title, description, start_date, end_date,
    location, organizer, url, image_url, external_id, categories,
    relevance_score, status, seo_title, seo_description, imported_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (url) WHERE url <> '' DO NOTHING
RETURNING id`
	var sourceID sql.NullInt64
	if event.SourceID != 0 {
		sourceID = sql.NullInt64{Int64: event.SourceID, Valid: true}
	}

	var id int64
	err := repo.db.QueryRowContext(ctx, query,
		sourceID, event.SourceKind, event.Title, event.Description, event.StartDate, event.EndDate,
		event.Location, event.Organizer, event.URL, event.ImageURL, event.ExternalID, pq.StringArray(event.Categories),
		event.RelevanceScore, string(event.Status), event.SEOTitle, event.SEODescription, event.ImportedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("Create: %w", entity.ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	event.ID = id
	return id, nil
}

// Update rewrites the content columns. Status and SEO are left alone;
// categories are replaced only when event carries some.
func (repo *EventRepo) Update(ctx context.Context, event *entity.Event) error {
	const query = `
UPDATE events SET
       title           = $1,
       description     = $2,
       start_date      = $3,
       end_date        = $4,
       location        = $5,
       organizer       = $6,
       image_url       = $7,
       relevance_score = $8,
       imported_at     = $9,
       categories      = CASE WHEN cardinality($10::text[]) > 0 THEN $10::text[] ELSE categories END,
       updated_at      = now()
WHERE id = $11`
	res, err := repo.db.ExecContext(ctx, query,
		event.Title, event.Description, event.StartDate, event.EndDate,
		event.Location, event.Organizer, event.ImageURL, event.RelevanceScore,
		event.ImportedAt, pq.StringArray(event.Categories), event.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRow("Update", res)
}

func (repo *EventRepo) TouchImportedAt(ctx context.Context, id int64, t time.Time) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE events SET imported_at = $1 WHERE id = $2`, t, id); err != nil {
		return fmt.Errorf("TouchImportedAt: %w", err)
	}
	return nil
}

func (repo *EventRepo) UpdateSEO(ctx context.Context, id int64, meta entity.SEOMeta) error {
	const query = `UPDATE events SET seo_title = $1, seo_description = $2, updated_at = now() WHERE id = $3`
	if _, err := repo.db.ExecContext(ctx, query, meta.Title, meta.Description, id); err != nil {
		return fmt.Errorf("UpdateSEO: %w", err)
	}
	return nil
}
