// Command import runs the event import pipeline once.
//
// Usage:
//
//	import                          run a full import
//	import -dry-run -source 3       show what source 3 would import, store nothing
//	import -test-kind website -test-url https://example.com/events
//	                                fetch a sample from an unsaved source
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"
	"time"

	"sactech-events/internal/app"
	"sactech-events/internal/infra/scraper"
	"sactech-events/internal/observability/logging"
	"sactech-events/internal/pkg/config"
	"sactech-events/internal/usecase/fetch"
)

func main() {
	var (
		dryRun   = flag.Bool("dry-run", false, "preview the source given by -source without storing anything")
		sourceID = flag.Int64("source", 0, "source ID for -dry-run")
		testKind = flag.String("test-kind", "", "adapter kind to test against -test-url")
		testURL  = flag.String("test-url", "", "URL to fetch with -test-kind")
		noSeed   = flag.Bool("no-seed", false, "do not seed an empty database")
		timeout  = flag.Duration("timeout", 30*time.Minute, "overall time limit")
	)
	flag.Parse()

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var err error
	switch {
	case *testKind != "" || *testURL != "":
		err = testSource(ctx, os.Stdout, *testKind, *testURL)
	case *dryRun:
		if *sourceID <= 0 {
			err = errors.New("-dry-run requires -source")
			break
		}
		err = withApp(ctx, logger, *noSeed, func(a *app.App) error {
			return preview(ctx, os.Stdout, a, *sourceID)
		})
	default:
		err = withApp(ctx, logger, *noSeed, func(a *app.App) error {
			return runImport(ctx, os.Stdout, a)
		})
	}
	if err != nil {
		logger.Error("import failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func withApp(ctx context.Context, logger *slog.Logger, noSeed bool, fn func(*app.App) error) error {
	r := config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", 10, config.IntRange(1, 50))
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", slog.String("warning", w))
	}

	a, err := app.Build(ctx, app.Options{
		Logger:              logger,
		NotifyMaxConcurrent: r.Value.(int),
		SeedFile:            config.LoadEnvString("SEED_FILE", ""),
		SkipSeed:            noSeed,
		Location:            location(logger),
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Error("shutdown incomplete", slog.Any("error", err))
		}
	}()
	return fn(a)
}

func location(logger *slog.Logger) *time.Location {
	r := config.LoadEnvWithFallback("WORKER_TIMEZONE", "America/Los_Angeles", config.ValidateTimezone)
	for _, w := range r.Warnings {
		logger.Warn("configuration fallback", slog.String("warning", w))
	}
	loc, err := time.LoadLocation(r.Value.(string))
	if err != nil {
		return time.UTC
	}
	return loc
}

func runImport(ctx context.Context, out io.Writer, a *app.App) error {
	sum, err := a.Importer.Run(ctx)
	if sum != nil {
		fmt.Fprintf(out, "run %s: fetched %d, created %d, updated %d, filtered %d\n",
			sum.RunID, sum.Count, sum.Created, sum.Updated, sum.Filtered)
		for _, reason := range slices.Sorted(maps.Keys(sum.Reasons)) {
			fmt.Fprintf(out, "  %-26s %d\n", reason, sum.Reasons[reason])
		}
	}
	return err
}

func preview(ctx context.Context, out io.Writer, a *app.App, sourceID int64) error {
	events, err := a.Importer.Preview(ctx, sourceID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PASS\tSCORE\tSTART\tEXISTING\tTITLE\tREASON")
	for _, ev := range events {
		existing := "-"
		if ev.ExistingID != 0 {
			existing = fmt.Sprint(ev.ExistingID)
		}
		fmt.Fprintf(w, "%t\t%d\t%s\t%s\t%s\t%s\n",
			ev.Verdict.Passed, ev.Verdict.Score, ev.Event.StartDate.Format("2006-01-02 15:04"),
			existing, ev.Event.Title, ev.Verdict.Reason)
	}
	return w.Flush()
}

func testSource(ctx context.Context, out io.Writer, kind, url string) error {
	if kind == "" || url == "" {
		return errors.New("-test-kind and -test-url are both required")
	}
	reg := fetch.NewRegistry()
	if err := scraper.Register(reg); err != nil {
		return err
	}
	svc := &fetch.Service{Registry: reg}

	res, err := svc.TestSource(ctx, kind, url, fetch.AdapterConfig{})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d events\n", res.Count)
	for _, ev := range res.Sample {
		fmt.Fprintf(out, "  %s  %s\n    %s\n", ev.StartDate.Format("2006-01-02 15:04"), ev.Title, ev.URL)
	}
	return nil
}
