package repository

import (
	"context"
	"time"

	"sactech-events/internal/domain/entity"
)

// SourceRepository persists source configurations.
// Get returns (nil, nil) when no row matches.
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.Source, error)
	// List returns every source that is not soft-deleted.
	List(ctx context.Context) ([]*entity.Source, error)
	// ListActive returns active sources ordered by name.
	ListActive(ctx context.Context) ([]*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	Update(ctx context.Context, source *entity.Source) error
	// SoftDelete marks the source deleted. The row is kept.
	SoftDelete(ctx context.Context, id int64) error
	TouchCheckedAt(ctx context.Context, id int64, t time.Time) error
}
