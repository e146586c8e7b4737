// Package app assembles the import pipeline from the environment. The
// scheduled worker and the command-line importer share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"sactech-events/internal/infra/adapter/persistence/dynamo"
	pgRepo "sactech-events/internal/infra/adapter/persistence/postgres"
	"sactech-events/internal/infra/db"
	"sactech-events/internal/infra/fetcher"
	"sactech-events/internal/infra/scraper"
	"sactech-events/internal/infra/seed"
	"sactech-events/internal/infra/textgen"
	"sactech-events/internal/pkg/config"
	"sactech-events/internal/repository"
	"sactech-events/internal/resilience/circuitbreaker"
	"sactech-events/internal/usecase/fetch"
	"sactech-events/internal/usecase/filter"
	"sactech-events/internal/usecase/importer"
	"sactech-events/internal/usecase/notify"
	"sactech-events/internal/usecase/relevance"
	"sactech-events/internal/usecase/settings"
	"sactech-events/internal/usecase/source"
)

// Event store backends selectable with EVENT_STORE.
const (
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
)

// Options configures Build.
type Options struct {
	Logger *slog.Logger

	// Metrics receives configuration fallbacks. May be nil.
	Metrics *config.ConfigMetrics

	// NotifyMaxConcurrent bounds in-flight webhook sends. Zero disables
	// notifications.
	NotifyMaxConcurrent int

	// SeedFile replaces the embedded seed document when set.
	SeedFile string

	// SkipSeed leaves an empty store empty.
	SkipSeed bool

	// Location is the zone for source dates without one.
	Location *time.Location
}

// App holds the wired services. Close releases them.
type App struct {
	DB       *sql.DB
	Registry *fetch.Registry
	Settings *settings.Store
	Sources  *source.Service
	Fetch    *fetch.Service
	Importer *importer.Service
	Notify   *notify.Service

	logger *slog.Logger
}

// Build connects to the stores named by the environment, seeds an empty
// database and wires the import pipeline.
//
// Environment variables:
//   - DATABASE_URL (required)
//   - EVENT_STORE: postgres (default) or dynamodb
//   - OPENAI_API_KEY, ANTHROPIC_API_KEY: used when the option store has no key
//   - DISCORD_ENABLED, DISCORD_WEBHOOK_URL, SLACK_ENABLED, SLACK_WEBHOOK_URL
//   - CONTENT_FETCH_* (see fetcher.LoadConfigFromEnv)
//   - AWS_REGION, DYNAMODB_TABLE, DYNAMODB_ENDPOINT when EVENT_STORE=dynamodb
func Build(ctx context.Context, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	database, err := db.Open(ctx, config.LoadEnvString("DATABASE_URL", ""), opts.Metrics)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}

	a := &App{DB: database, logger: logger}
	if err := a.wire(ctx, opts); err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context, opts Options) error {
	logger := a.logger

	guarded := circuitbreaker.NewDBCircuitBreaker(a.DB)
	sources := pgRepo.NewSourceRepo(guarded)
	a.Settings = &settings.Store{Repo: pgRepo.NewOptionRepo(guarded), Metrics: opts.Metrics}

	events, err := openEventStore(ctx, guarded, opts.Metrics, logger)
	if err != nil {
		return err
	}

	if !opts.SkipSeed {
		f, err := seed.Load(opts.SeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(ctx, f, sources, a.Settings); err != nil {
			return err
		}
	}

	a.Registry = fetch.NewRegistry()
	if err := scraper.Register(a.Registry); err != nil {
		return fmt.Errorf("register source kinds: %w", err)
	}
	a.Fetch = &fetch.Service{SourceRepo: sources, Registry: a.Registry}
	a.Sources = &source.Service{Repo: sources, Kinds: a.Registry}

	if opts.NotifyMaxConcurrent > 0 {
		a.Notify = notify.NewService(loadChannels(logger), opts.NotifyMaxConcurrent)
	}

	content := fetcher.NewReadabilityFetcher(fetcher.LoadConfigFromEnv(opts.Metrics))
	gen := &textgen.Factory{EnvKeys: map[string]string{
		settings.ProviderOpenAI: config.LoadEnvString("OPENAI_API_KEY", ""),
		settings.ProviderClaude: config.LoadEnvString("ANTHROPIC_API_KEY", ""),
	}}

	a.Importer = &importer.Service{
		Fetch: a.Fetch,
		Filter: &filter.Service{
			Settings: a.Settings,
			Events:   events,
			Scorer:   relevance.NewScorer(nil),
		},
		Settings: a.Settings,
		Events:   events,
		TextGen:  gen,
		Content:  content,
		Location: opts.Location,
	}
	if a.Notify != nil {
		a.Importer.Notifier = a.Notify
	}

	logger.Info("import pipeline ready",
		slog.Int("source_kinds", len(a.Registry.Kinds())),
		slog.Bool("notifications", a.Notify != nil))
	return nil
}

func openEventStore(ctx context.Context, database pgRepo.DB, metrics *config.ConfigMetrics, logger *slog.Logger) (repository.EventRepository, error) {
	r := config.LoadEnvWithFallback("EVENT_STORE", StorePostgres, config.ValidateOneOf(StorePostgres, StoreDynamoDB))
	metrics.Observe("event_store", r)

	if r.Value.(string) != StoreDynamoDB {
		return pgRepo.NewEventRepo(database), nil
	}

	cfg := dynamo.LoadConfigFromEnv()
	repo, err := dynamo.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureTables(ctx); err != nil {
		return nil, err
	}
	logger.Info("using DynamoDB event store",
		slog.String("table", cfg.TableName),
		slog.String("region", cfg.Region))
	return repo, nil
}

// Close drains pending notifications within ctx and closes the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Notify != nil {
		if err := a.Notify.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("notify drain: %w", err))
			_ = a.Notify.Shutdown(ctx)
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
