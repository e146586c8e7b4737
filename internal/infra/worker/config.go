package worker

import (
	"fmt"
	"time"

	"sactech-events/internal/pkg/config"
)

// WorkerConfig holds the process-level settings of the scheduled importer.
// The import cadence itself lives in the option store (schedule_frequency);
// CronSchedule only pins it when set.
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	cfg := LoadConfigFromEnv(metrics)
//	loc, _ := time.LoadLocation(cfg.Timezone)
type WorkerConfig struct {
	// CronSchedule overrides the stored cadence when non-empty.
	// Accepts five-field expressions and @descriptors.
	// Default: "" (follow schedule_frequency)
	CronSchedule string

	// Timezone is the IANA timezone the cron cadence is evaluated in.
	// Default: "America/Los_Angeles"
	Timezone string

	// NotifyMaxConcurrent bounds in-flight webhook deliveries.
	// Range: 1-50
	// Default: 10
	NotifyMaxConcurrent int

	// RunTimeout bounds a single import run.
	// Range: 1m-4h
	// Default: 30 minutes
	RunTimeout time.Duration

	// PollInterval is how often the stored cadence is re-read.
	// Range: 10s-1h
	// Default: 1 minute
	PollInterval time.Duration

	// HealthPort serves /health and /health/ready.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// MetricsPort serves /metrics.
	// Range: 1024-65535
	// Default: 9090
	MetricsPort int

	// SeedFile replaces the embedded seed document when set.
	SeedFile string
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		Timezone:            "America/Los_Angeles",
		NotifyMaxConcurrent: 10,
		RunTimeout:          30 * time.Minute,
		PollInterval:        time.Minute,
		HealthPort:          9091,
		MetricsPort:         9090,
	}
}

// Validate checks every field and returns all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if c.CronSchedule != "" {
		if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
			errs = append(errs, fmt.Errorf("cron schedule: %w", err))
		}
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateDuration(c.PollInterval, 10*time.Second, time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("poll interval: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the worker environment. Invalid values fall back to
// their defaults with a warning; the returned config is always usable.
//
// Environment variables:
//   - CRON_SCHEDULE
//   - WORKER_TIMEZONE
//   - NOTIFY_MAX_CONCURRENT
//   - WORKER_RUN_TIMEOUT
//   - SCHEDULE_POLL_INTERVAL
//   - WORKER_HEALTH_PORT
//   - METRICS_PORT
//   - SEED_FILE
func LoadConfigFromEnv(metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	fallback := false

	r := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	fallback = cm.Observe("cron_schedule", r) || fallback
	cfg.CronSchedule = r.Value.(string)

	r = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	fallback = cm.Observe("timezone", r) || fallback
	cfg.Timezone = r.Value.(string)

	r = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, config.IntRange(1, 50))
	fallback = cm.Observe("notify_max_concurrent", r) || fallback
	cfg.NotifyMaxConcurrent = r.Value.(int)

	r = config.LoadEnvDuration("WORKER_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 4*time.Hour)
	})
	fallback = cm.Observe("run_timeout", r) || fallback
	cfg.RunTimeout = r.Value.(time.Duration)

	r = config.LoadEnvDuration("SCHEDULE_POLL_INTERVAL", cfg.PollInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, time.Hour)
	})
	fallback = cm.Observe("poll_interval", r) || fallback
	cfg.PollInterval = r.Value.(time.Duration)

	r = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535))
	fallback = cm.Observe("health_port", r) || fallback
	cfg.HealthPort = r.Value.(int)

	r = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.IntRange(1024, 65535))
	fallback = cm.Observe("metrics_port", r) || fallback
	cfg.MetricsPort = r.Value.(int)

	cfg.SeedFile = config.LoadEnvString("SEED_FILE", "")

	cm.SetFallbackActive(fallback)
	cm.RecordLoadTimestamp()
	return &cfg
}
