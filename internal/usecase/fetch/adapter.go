package fetch

import (
	"context"
	"time"

	"sactech-events/internal/domain/entity"
)

// Adapter fetches raw events from one configured source.
//
// FetchEvents returns at most limit events. A returned error means the source
// could not be reached at all; partial results and per-item parse problems
// are handled inside the adapter.
type Adapter interface {
	FetchEvents(ctx context.Context, limit int) ([]entity.RawEvent, error)
	Name() string
	Kind() string
}

// AdapterConfig carries the per-run transport settings from the configuration store.
type AdapterConfig struct {
	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Location is used for dates that carry no zone. Nil means UTC.
	Location *time.Location
}

// DefaultTimeout is applied when AdapterConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// WithDefaults fills unset fields.
func (c AdapterConfig) WithDefaults() AdapterConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Constructor builds an adapter for src.
type Constructor func(src *entity.Source, cfg AdapterConfig) (Adapter, error)
