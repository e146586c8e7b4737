package repository

import (
	"context"
	"time"

	"sactech-events/internal/domain/entity"
)

// EventRepository is the durable event store.
//
// Find methods return 0 and a nil error when nothing matches.
// Create returns entity.ErrDuplicate when another row already owns the event URL.
type EventRepository interface {
	Get(ctx context.Context, id int64) (*entity.Event, error)
	FindByURL(ctx context.Context, url string) (int64, error)
	// FindByTitleAndDate matches the exact title and the calendar day of day in its location.
	FindByTitleAndDate(ctx context.Context, title string, day time.Time) (int64, error)
	Create(ctx context.Context, event *entity.Event) (int64, error)
	Update(ctx context.Context, event *entity.Event) error
	TouchImportedAt(ctx context.Context, id int64, t time.Time) error
	UpdateSEO(ctx context.Context, id int64, meta entity.SEOMeta) error
}
