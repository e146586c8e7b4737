package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/infra/textgen"
	"sactech-events/internal/observability/logging"
	"sactech-events/internal/observability/metrics"
	"sactech-events/internal/observability/tracing"
	"sactech-events/internal/repository"
	"sactech-events/internal/usecase/fetch"
	"sactech-events/internal/usecase/filter"
	"sactech-events/internal/usecase/relevance"
	"sactech-events/internal/usecase/settings"
	"sactech-events/internal/utils/text"
)

const (
	// autoPublishScore is the legacy score from which auto_publish applies.
	autoPublishScore = 80

	// updateSimilarity is the description similarity (percent) below which an
	// existing event is rewritten.
	updateSimilarity = 90.0
)

// GeneratorFactory selects a text generator for the settings of a run.
type GeneratorFactory interface {
	For(cfg *settings.Settings) textgen.Generator
}

// ContentEnhancer replaces thin descriptions with the text of the event page.
type ContentEnhancer interface {
	Enhance(ctx context.Context, pageURL, description string) (string, error)
}

// EventNotifier is told about newly created events. It must not block.
type EventNotifier interface {
	NotifyNewEvent(ctx context.Context, event *entity.Event, source *entity.Source)
}

// Service is the import pipeline controller. Fetch, Filter, Settings and
// Events are required; the rest are optional.
type Service struct {
	Fetch    *fetch.Service
	Filter   *filter.Service
	Settings *settings.Store
	Events   repository.EventRepository

	TextGen  GeneratorFactory
	Content  ContentEnhancer
	Notifier EventNotifier

	// Location is used for source dates without a zone. Nil means UTC.
	Location *time.Location

	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary is the outcome of one run.
type Summary struct {
	RunID string

	// Count is the number of events fetched.
	Count    int
	Filtered int
	Created  int
	Updated  int

	// Reasons counts filtered events per skip reason.
	Reasons map[string]int
}

func (s *Summary) skip(reason string) {
	s.Filtered++
	s.Reasons[reason]++
	metrics.RecordEventSkipped(reason)
}

// run is the per-run state shared by the event steps.
type run struct {
	cfg  *settings.Settings
	cats entity.CategoryMap
	gen  textgen.Generator
	sum  *Summary
	log  *slog.Logger
}

// Run imports events from every active source. It never panics: a panic is
// recovered and returned as ErrRunPanicked together with the partial summary.
// Failures of single events are logged and counted, not returned.
func (s *Service) Run(ctx context.Context) (sum *Summary, err error) {
	sum = &Summary{RunID: uuid.NewString(), Reasons: make(map[string]int)}
	ctx, logger := logging.WithRunID(ctx, logging.FromContext(ctx), sum.RunID)
	ctx, span := tracing.GetTracer().Start(ctx, tracing.SpanImportRun)
	defer span.End()
	span.SetAttributes(attribute.String("run.id", sum.RunID))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("import run panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrRunPanicked, r)
		}
		tracing.Fail(span, err)
		metrics.RecordImportRun(err == nil, time.Since(start))
		span.SetAttributes(
			attribute.Int("events.fetched", sum.Count),
			attribute.Int("events.created", sum.Created),
			attribute.Int("events.updated", sum.Updated),
			attribute.Int("events.filtered", sum.Filtered))
	}()

	logger.Info("import run started")

	r, err := s.prepare(ctx, sum, logger)
	if err != nil {
		logger.Error("import run failed", slog.Any("error", err))
		return sum, err
	}

	res, err := s.Fetch.FetchAll(ctx, r.cfg.MaxEventsPerImport, s.adapterConfig(r.cfg))
	if err != nil {
		logger.Error("import run failed", slog.Any("error", err))
		return sum, fmt.Errorf("fetch events: %w", err)
	}
	sum.Count = len(res.Events)

	for i := range res.Events {
		s.importOne(ctx, r, &res.Events[i])
	}

	logger.Info("import run completed",
		slog.Int("count", sum.Count),
		slog.Int("created", sum.Created),
		slog.Int("updated", sum.Updated),
		slog.Int("filtered", sum.Filtered),
		slog.Int("failed_sources", res.Failed),
		slog.Duration("duration", time.Since(start)))
	return sum, nil
}

func (s *Service) prepare(ctx context.Context, sum *Summary, logger *slog.Logger) (*run, error) {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	cats, err := s.Filter.Categories(ctx)
	if err != nil {
		return nil, err
	}
	var gen textgen.Generator = textgen.NoOp{}
	if s.TextGen != nil {
		gen = s.TextGen.For(cfg)
	}
	return &run{cfg: cfg, cats: cats, gen: gen, sum: sum, log: logger}, nil
}

func (s *Service) adapterConfig(cfg *settings.Settings) fetch.AdapterConfig {
	return fetch.AdapterConfig{
		Timeout:            cfg.RequestTimeout,
		InsecureSkipVerify: cfg.DisableSSLVerify,
		Location:           s.Location,
	}
}

// importOne is the per-event fault boundary.
func (s *Service) importOne(ctx context.Context, r *run, raw *entity.RawEvent) {
	logger := r.log.With(slog.String("title", raw.Title), slog.String("url", raw.URL))
	if raw.Source != nil {
		logger = logger.With(slog.Int64("source_id", raw.Source.ID), slog.String("source_kind", raw.Source.Kind))
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("event import panicked",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			r.sum.skip(SkipStoreError)
		}
	}()

	if kw, ok := filter.ContainsBlacklisted(raw, r.cfg.BlacklistKeywords); ok {
		logger.Info("event skipped", slog.String("reason", "Contains blacklisted keyword: "+kw))
		r.sum.skip(SkipBlacklisted)
		return
	}

	score := relevance.LegacyScore(raw)
	logger = logger.With(slog.Int("score", score))
	if score < r.cfg.MinRelevanceScore {
		logger.Info("event skipped",
			slog.String("reason", fmt.Sprintf("Low relevance score: %d (minimum: %d)", score, r.cfg.MinRelevanceScore)))
		r.sum.skip(SkipLowScore)
		return
	}

	id, exists, err := s.Filter.EventExists(ctx, raw)
	if err != nil {
		logger.Error("event skipped", slog.String("reason", "identity lookup failed"), slog.Any("error", err))
		r.sum.skip(SkipStoreError)
		return
	}
	if exists {
		s.refresh(ctx, r, logger, id, raw, score)
		return
	}

	s.create(ctx, r, logger, raw, score)
}

func (s *Service) create(ctx context.Context, r *run, logger *slog.Logger, raw *entity.RawEvent, score int) {
	ev := entity.NewEventFromRaw(raw, s.now())
	ev.RelevanceScore = score
	ev.Status = r.cfg.DefaultStatus
	if r.cfg.AutoPublish && score >= autoPublishScore {
		ev.Status = entity.EventStatusPublish
	}
	ev.Description = s.enrichDescription(ctx, r, logger, raw.URL, ev.Title, ev.Description)
	ev.Categories = filter.DetectCategories(ev.Title+" "+ev.Description, r.cats)

	id, err := s.Events.Create(ctx, ev)
	if errors.Is(err, entity.ErrDuplicate) {
		existing, findErr := s.Events.FindByURL(ctx, ev.URL)
		if findErr == nil && existing != 0 {
			s.refresh(ctx, r, logger, existing, raw, score)
			return
		}
	}
	if err != nil {
		logger.Error("event skipped", slog.String("reason", "create failed"), slog.Any("error", err))
		r.sum.skip(SkipStoreError)
		return
	}
	ev.ID = id

	if r.cfg.UseAIForSEO {
		meta, err := r.gen.GenerateSEOMeta(ctx, ev.Title, ev.Description)
		s.recordEnrichment(logger, "seo", err)
		if err == nil {
			if err := s.Events.UpdateSEO(ctx, id, meta); err != nil {
				logger.Warn("failed to store SEO metadata", slog.Int64("event_id", id), slog.Any("error", err))
			} else {
				ev.SEOTitle, ev.SEODescription = meta.Title, meta.Description
			}
		}
	}

	r.sum.Created++
	metrics.RecordEventImported(score)
	logger.Info("event imported",
		slog.Int64("event_id", id),
		slog.String("status", string(ev.Status)),
		slog.Any("categories", ev.Categories))

	if s.Notifier != nil && raw.Source != nil {
		s.Notifier.NotifyNewEvent(context.WithoutCancel(ctx), ev, raw.Source)
	}
}

// refresh handles an event whose identity is already stored. The stored
// record is rewritten when the title changed or the description drifted;
// otherwise only its imported-at timestamp moves.
func (s *Service) refresh(ctx context.Context, r *run, logger *slog.Logger, id int64, raw *entity.RawEvent, score int) {
	logger = logger.With(slog.Int64("event_id", id))
	defer r.sum.skip(SkipExists)

	current, err := s.Events.Get(ctx, id)
	if err != nil || current == nil {
		logger.Warn("existing event could not be loaded", slog.Any("error", err))
		return
	}

	title := strings.TrimSpace(raw.Title)
	descChanged := raw.Description != "" && text.SimilarPercent(current.Description, raw.Description) < updateSimilarity
	if title == current.Title && !descChanged {
		if err := s.Events.TouchImportedAt(ctx, id, s.now()); err != nil {
			logger.Warn("failed to touch existing event", slog.Any("error", err))
		}
		logger.Info("event skipped", slog.String("reason", "already exists"))
		return
	}

	ev := entity.NewEventFromRaw(raw, s.now())
	ev.ID = id
	ev.RelevanceScore = score
	if raw.Description == "" {
		ev.Description = current.Description
	} else {
		ev.Description = s.enrichDescription(ctx, r, logger, raw.URL, ev.Title, raw.Description)
	}
	ev.Categories = filter.DetectCategories(ev.Title+" "+ev.Description, r.cats)

	if err := s.Events.Update(ctx, ev); err != nil {
		logger.Error("failed to update existing event", slog.Any("error", err))
		return
	}
	r.sum.Updated++
	metrics.RecordEventUpdated()
	logger.Info("event updated",
		slog.Bool("title_changed", title != current.Title),
		slog.Bool("description_changed", descChanged))
}

// enrichDescription applies page extraction and AI rewriting when enabled.
// Any failure keeps the text from the previous step.
func (s *Service) enrichDescription(ctx context.Context, r *run, logger *slog.Logger, pageURL, title, desc string) string {
	if s.Content != nil && r.cfg.EnhanceContent {
		enhanced, err := s.Content.Enhance(ctx, pageURL, desc)
		if err != nil {
			logger.Warn("content enhancement failed", slog.Any("error", err))
		}
		desc = enhanced
	}

	if r.cfg.UseAIForDescriptions && strings.TrimSpace(desc) != "" {
		out, err := r.gen.EnhanceDescription(ctx, title, desc)
		s.recordEnrichment(logger, "description", err)
		if err == nil && strings.TrimSpace(out) != "" {
			desc = out
		}
	}
	return desc
}

func (s *Service) recordEnrichment(logger *slog.Logger, kind string, err error) {
	switch {
	case errors.Is(err, textgen.ErrNoAPIKey):
		logger.Debug("text generation not configured", slog.String("kind", kind))
	case err != nil:
		metrics.RecordEnrichment(kind, false)
		logger.Warn("text generation failed, keeping original", slog.String("kind", kind), slog.Any("error", err))
	default:
		metrics.RecordEnrichment(kind, true)
	}
}

// Preview fetches one source and returns each event with the verdict the
// category filter gives it, without storing anything.
func (s *Service) Preview(ctx context.Context, sourceID int64) ([]entity.ScoredEvent, error) {
	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	cats, err := s.Filter.Categories(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.Fetch.FetchSource(ctx, sourceID, cfg.MaxEventsPerImport, s.adapterConfig(cfg))
	if err != nil {
		return nil, err
	}

	rules := filter.RulesFrom(cfg)
	out := make([]entity.ScoredEvent, 0, len(events))
	for i := range events {
		scored := entity.ScoredEvent{
			Event:   events[i],
			Verdict: s.Filter.Evaluate(&events[i], rules, cats),
		}
		id, exists, err := s.Filter.EventExists(ctx, &events[i])
		if err != nil {
			return nil, fmt.Errorf("preview: %w", err)
		}
		if exists {
			scored.ExistingID = id
		}
		out = append(out, scored)
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
