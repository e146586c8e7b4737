package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"sactech-events/internal/usecase/settings"
)

// Cadence names stored in schedule_frequency.
const (
	CadenceHourly     = settings.FrequencyHourly
	CadenceTwiceDaily = settings.FrequencyTwiceDaily
	CadenceDaily      = settings.FrequencyDaily
	CadenceWeekly     = settings.FrequencyWeekly
)

var cadenceSpecs = map[string]string{
	CadenceHourly:     "@hourly",
	CadenceTwiceDaily: "0 */12 * * *",
	CadenceDaily:      "@daily",
	CadenceWeekly:     "@weekly",
}

// ErrUnknownCadence is returned by CronSpec for names outside the cadence set.
var ErrUnknownCadence = errors.New("unknown cadence")

// CronSpec maps a cadence name to its cron spec.
func CronSpec(cadence string) (string, error) {
	spec, ok := cadenceSpecs[cadence]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCadence, cadence)
	}
	return spec, nil
}

// Job runs one import. The returned status is published on /health/ready.
type Job func(ctx context.Context) (RunStatus, error)

// CadenceFunc reads the current cadence name.
type CadenceFunc func(ctx context.Context) (string, error)

// SchedulerOptions configures NewScheduler. Metrics and Health are optional.
type SchedulerOptions struct {
	Job      Job
	Cadence  CadenceFunc
	Config   *WorkerConfig
	Metrics  *WorkerMetrics
	Health   *HealthServer
	Logger   *slog.Logger
	Location *time.Location
}

// Scheduler runs Job on the stored cadence and follows changes to it. A change
// adds the new entry before removing the old one, so the job is never
// unscheduled. Overlapping runs are skipped.
type Scheduler struct {
	opts SchedulerOptions
	cron *cron.Cron

	mu      sync.Mutex
	spec    string
	entryID cron.EntryID

	running atomic.Bool
	baseCtx context.Context
}

// NewScheduler builds a stopped scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Config == nil {
		cfg := DefaultConfig()
		opts.Config = &cfg
	}
	return &Scheduler{
		opts:    opts,
		cron:    cron.New(cron.WithLocation(opts.Location)),
		baseCtx: context.Background(),
	}
}

// Spec returns the active cron spec, empty before the first Sync.
func (s *Scheduler) Spec() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Sync resolves the cadence and reschedules when it changed. It reports
// whether the schedule changed. An unreadable or unknown cadence keeps the
// current schedule, or falls back to daily when nothing is scheduled yet.
func (s *Scheduler) Sync(ctx context.Context) (bool, error) {
	spec, err := s.resolve(ctx)
	if err != nil {
		s.mu.Lock()
		scheduled := s.spec != ""
		s.mu.Unlock()
		if scheduled {
			return false, err
		}
		s.opts.Logger.Warn("cadence unavailable, using daily", slog.Any("error", err))
		spec = cadenceSpecs[CadenceDaily]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if spec == s.spec {
		return false, err
	}

	id, addErr := s.cron.AddFunc(spec, s.runJob)
	if addErr != nil {
		return false, fmt.Errorf("schedule %q: %w", spec, addErr)
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	old := s.spec
	s.spec, s.entryID = spec, id

	if old != "" && s.opts.Metrics != nil {
		s.opts.Metrics.RecordScheduleChange()
	}
	if s.opts.Health != nil {
		s.opts.Health.SetSchedule(spec)
	}
	s.opts.Logger.Info("import schedule set",
		slog.String("spec", spec),
		slog.String("previous", old),
		slog.String("timezone", s.opts.Location.String()))
	return true, err
}

func (s *Scheduler) resolve(ctx context.Context) (string, error) {
	if s.opts.Config.CronSchedule != "" {
		return s.opts.Config.CronSchedule, nil
	}
	if s.opts.Cadence == nil {
		return cadenceSpecs[CadenceDaily], nil
	}
	name, err := s.opts.Cadence(ctx)
	if err != nil {
		return "", fmt.Errorf("read cadence: %w", err)
	}
	return CronSpec(name)
}

// Run schedules the job, then polls the cadence every PollInterval until ctx
// is cancelled. It waits for an in-flight run before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	if _, err := s.Sync(ctx); err != nil {
		s.opts.Logger.Warn("initial schedule sync", slog.Any("error", err))
	}
	s.cron.Start()
	if s.opts.Health != nil {
		s.opts.Health.SetReady(true)
	}

	ticker := time.NewTicker(s.opts.Config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if s.opts.Health != nil {
				s.opts.Health.SetReady(false)
			}
			<-s.cron.Stop().Done()
			s.opts.Logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.opts.Logger.Warn("schedule sync failed, keeping current schedule",
					slog.String("spec", s.Spec()), slog.Any("error", err))
			}
		}
	}
}

// RunNow executes the job immediately, outside the cron cadence.
func (s *Scheduler) RunNow() {
	s.runJob()
}

func (s *Scheduler) runJob() {
	if !s.running.CompareAndSwap(false, true) {
		s.opts.Logger.Warn("previous import still running, skipping")
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordJobRun("skipped")
		}
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.Config.RunTimeout)
	defer cancel()

	status, err := s.opts.Job(ctx)
	status.FinishedAt = time.Now()
	duration := time.Since(start)

	if err != nil {
		status.Error = err.Error()
		s.opts.Logger.Error("scheduled import failed",
			slog.String("run_id", status.RunID),
			slog.Duration("duration", duration),
			slog.Any("error", err))
	} else {
		s.opts.Logger.Info("scheduled import completed",
			slog.String("run_id", status.RunID),
			slog.Int("created", status.Created),
			slog.Int("updated", status.Updated),
			slog.Int("filtered", status.Filtered),
			slog.Duration("duration", duration))
	}

	if m := s.opts.Metrics; m != nil {
		m.RecordJobDuration(duration.Seconds())
		if err != nil {
			m.RecordJobRun("failure")
		} else {
			m.RecordJobRun("success")
			m.RecordEventsImported(status.Created)
			m.RecordLastSuccess()
		}
	}
	if s.opts.Health != nil {
		s.opts.Health.SetLastRun(status)
	}
}
