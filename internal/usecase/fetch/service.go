package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/observability/logging"
	"sactech-events/internal/observability/metrics"
	"sactech-events/internal/observability/tracing"
	"sactech-events/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// minPerSource is the smallest share any single source is asked for.
const minPerSource = 5

// testSourceLimit is the number of events fetched when trying out an unsaved source.
const testSourceLimit = 5

// Service orchestrates adapters across all active sources.
// Sources are fetched one after another, never concurrently.
type Service struct {
	SourceRepo repository.SourceRepository
	Registry   *Registry

	// Now is used for checkpoint timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of FetchAll.
type Result struct {
	Events []entity.RawEvent

	// Sources is the number of active sources considered.
	Sources int

	// Failed counts sources that contributed nothing because their adapter
	// could not be built or returned an error.
	Failed int

	// Truncated is the number of events dropped to honour the overall limit.
	Truncated int
}

// TestResult is returned by TestSource.
type TestResult struct {
	Count  int
	Sample []entity.RawEvent
}

// PerSourceLimit returns the share each source is asked for: max(5, limit/sources).
func PerSourceLimit(limit, sources int) int {
	if sources < 1 {
		sources = 1
	}
	share := limit / sources
	if share < minPerSource {
		share = minPerSource
	}
	return share
}

// FetchAll pulls events from every active source and returns at most limit of them.
//
// Each source runs inside its own fault boundary. A source whose adapter
// cannot be built or returns an error contributes zero events and keeps its
// previous checkpoint. A source whose adapter returns normally, even with
// zero events, gets its checkpoint moved to now.
//
// Events keep source iteration order and per-source order. Only a failure to
// list the sources is returned as an error.
func (s *Service) FetchAll(ctx context.Context, limit int, cfg AdapterConfig) (*Result, error) {
	s.Registry.Seal()
	logger := logging.FromContext(ctx)

	sources, err := s.SourceRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}

	res := &Result{Sources: len(sources)}
	if len(sources) == 0 {
		logger.Info("no active sources configured")
		return res, nil
	}

	share := PerSourceLimit(limit, len(sources))
	for _, src := range sources {
		events, err := s.fetchOne(ctx, src, share, cfg)
		if err != nil {
			res.Failed++
			logger.Warn("source fetch failed",
				slog.Int64("source_id", src.ID),
				slog.String("source_name", src.Name),
				slog.String("source_kind", src.Kind),
				slog.Any("error", err))
			continue
		}

		for i := range events {
			events[i].Source = src
		}
		res.Events = append(res.Events, events...)

		if err := s.SourceRepo.TouchCheckedAt(context.WithoutCancel(ctx), src.ID, s.now()); err != nil {
			logger.Warn("failed to update source checkpoint",
				slog.Int64("source_id", src.ID),
				slog.Any("error", err))
		}
	}

	if limit > 0 && len(res.Events) > limit {
		res.Truncated = len(res.Events) - limit
		res.Events = res.Events[:limit]
	}

	logger.Info("fetched events from sources",
		slog.Int("sources", res.Sources),
		slog.Int("failed_sources", res.Failed),
		slog.Int("events", len(res.Events)),
		slog.Int("truncated", res.Truncated),
		slog.Int("per_source_limit", share))

	return res, nil
}

// FetchSource fetches up to limit events from one stored source without
// touching its checkpoint.
func (s *Service) FetchSource(ctx context.Context, id int64, limit int, cfg AdapterConfig) ([]entity.RawEvent, error) {
	src, err := s.SourceRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil || src.Status == entity.SourceStatusDeleted {
		return nil, ErrSourceNotFound
	}

	events, err := s.fetchOne(ctx, src, limit, cfg)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Source = src
	}
	return events, nil
}

// TestSource builds an adapter for an unsaved kind/URL pair and fetches a small sample.
func (s *Service) TestSource(ctx context.Context, kind, url string, cfg AdapterConfig) (*TestResult, error) {
	src := &entity.Source{
		Name:   "Test Source",
		Kind:   kind,
		URL:    url,
		Status: entity.SourceStatusActive,
	}
	events, err := s.fetchOne(ctx, src, testSourceLimit, cfg)
	if err != nil {
		return nil, err
	}
	if len(events) > testSourceLimit {
		events = events[:testSourceLimit]
	}
	return &TestResult{Count: len(events), Sample: events}, nil
}

// fetchOne runs a single adapter call. Panics inside the adapter are
// converted into errors so one broken source cannot end the run.
func (s *Service) fetchOne(ctx context.Context, src *entity.Source, limit int, cfg AdapterConfig) (events []entity.RawEvent, err error) {
	ctx, span := tracing.GetTracer().Start(ctx, tracing.SpanFetchSource,
		trace.WithAttributes(
			attribute.Int64("source.id", src.ID),
			attribute.String("source.kind", src.Kind),
			attribute.Int("limit", limit),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSourceFetchError(src.Kind, "panic")
			logging.FromContext(ctx).Error("source adapter panicked",
				slog.Int64("source_id", src.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			events, err = nil, fmt.Errorf("adapter panic: %v", r)
		}
		tracing.Fail(span, err)
	}()

	adapter, err := s.Registry.NewAdapter(src, cfg)
	if err != nil {
		errType := "constructor"
		if errors.Is(err, ErrUnknownKind) {
			errType = "unknown_kind"
		}
		metrics.RecordSourceFetchError(src.Kind, errType)
		return nil, err
	}

	start := time.Now()
	events, err = adapter.FetchEvents(ctx, limit)
	if err != nil {
		metrics.RecordSourceFetchError(src.Kind, "fetch")
		return nil, fmt.Errorf("%s: %w", adapter.Name(), err)
	}

	metrics.RecordSourceFetch(src.Kind, len(events), time.Since(start))
	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
