package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cadenceStub struct {
	mu    sync.Mutex
	value string
	err   error
}

func (c *cadenceStub) set(v string, err error) {
	c.mu.Lock()
	c.value, c.err = v, err
	c.mu.Unlock()
}

func (c *cadenceStub) read(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.err
}

func noopJob(context.Context) (RunStatus, error) { return RunStatus{}, nil }

func TestCronSpec(t *testing.T) {
	tests := map[string]string{
		"hourly":     "@hourly",
		"twicedaily": "0 */12 * * *",
		"daily":      "@daily",
		"weekly":     "@weekly",
	}
	for cadence, want := range tests {
		got, err := CronSpec(cadence)
		require.NoError(t, err)
		assert.Equal(t, want, got, cadence)
	}

	_, err := CronSpec("monthly")
	assert.ErrorIs(t, err, ErrUnknownCadence)
}

func TestScheduler_SyncFollowsCadence(t *testing.T) {
	cadence := &cadenceStub{value: "daily"}
	health := NewHealthServer(":0", testLogger())
	s := NewScheduler(SchedulerOptions{Job: noopJob, Cadence: cadence.read, Health: health, Logger: testLogger()})
	ctx := context.Background()

	changed, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "@daily", s.Spec())

	changed, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "same cadence must not reschedule")

	cadence.set("hourly", nil)
	changed, err = s.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "@hourly", s.Spec())
	assert.Len(t, s.cron.Entries(), 1, "old entry must be removed")

	health.SetReady(true)
	_, resp := getJSON(t, health.Handler(), "/health/ready")
	assert.Equal(t, "@hourly", resp.Schedule)
}

func TestScheduler_SyncKeepsScheduleOnBadCadence(t *testing.T) {
	cadence := &cadenceStub{value: "weekly"}
	s := NewScheduler(SchedulerOptions{Job: noopJob, Cadence: cadence.read, Logger: testLogger()})
	ctx := context.Background()

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	cadence.set("fortnightly", nil)
	changed, err := s.Sync(ctx)
	assert.ErrorIs(t, err, ErrUnknownCadence)
	assert.False(t, changed)
	assert.Equal(t, "@weekly", s.Spec())

	cadence.set("", errors.New("db down"))
	changed, err = s.Sync(ctx)
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, "@weekly", s.Spec())
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_SyncFallsBackToDaily(t *testing.T) {
	cadence := &cadenceStub{err: errors.New("db down")}
	s := NewScheduler(SchedulerOptions{Job: noopJob, Cadence: cadence.read, Logger: testLogger()})

	changed, err := s.Sync(context.Background())
	assert.Error(t, err)
	assert.True(t, changed)
	assert.Equal(t, "@daily", s.Spec())
}

func TestScheduler_CronOverride(t *testing.T) {
	cadence := &cadenceStub{value: "hourly"}
	cfg := DefaultConfig()
	cfg.CronSchedule = "30 5 * * *"
	s := NewScheduler(SchedulerOptions{Job: noopJob, Cadence: cadence.read, Config: &cfg, Logger: testLogger()})

	_, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "30 5 * * *", s.Spec())
}

func TestScheduler_RunJobRecordsOutcome(t *testing.T) {
	health := NewHealthServer(":0", testLogger())
	calls := 0
	job := func(ctx context.Context) (RunStatus, error) {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			t.Error("job context has no deadline")
		}
		if calls == 2 {
			return RunStatus{RunID: "r2"}, errors.New("store unavailable")
		}
		return RunStatus{RunID: "r1", Created: 4, Updated: 1}, nil
	}
	s := NewScheduler(SchedulerOptions{Job: job, Metrics: globalTestMetrics, Health: health, Logger: testLogger()})
	health.SetReady(true)

	success := testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("success"))
	failure := testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("failure"))
	imported := testutil.ToFloat64(globalTestMetrics.JobEventsImportedTotal)

	s.RunNow()
	_, resp := getJSON(t, health.Handler(), "/health/ready")
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, "r1", resp.LastRun.RunID)
	assert.Empty(t, resp.LastRun.Error)
	assert.False(t, resp.LastRun.FinishedAt.IsZero())

	s.RunNow()
	_, resp = getJSON(t, health.Handler(), "/health/ready")
	assert.Equal(t, "store unavailable", resp.LastRun.Error)

	assert.Equal(t, success+1, testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("success")))
	assert.Equal(t, failure+1, testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("failure")))
	assert.Equal(t, imported+4, testutil.ToFloat64(globalTestMetrics.JobEventsImportedTotal))
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	job := func(context.Context) (RunStatus, error) {
		calls.Add(1)
		close(started)
		<-release
		return RunStatus{}, nil
	}
	s := NewScheduler(SchedulerOptions{Job: job, Metrics: globalTestMetrics, Logger: testLogger()})
	skipped := testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("skipped"))

	done := make(chan struct{})
	go func() {
		s.RunNow()
		close(done)
	}()
	<-started

	s.RunNow()
	close(release)
	<-done

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, skipped+1, testutil.ToFloat64(globalTestMetrics.JobRunsTotal.WithLabelValues("skipped")))
}

func TestScheduler_RunPollsAndStops(t *testing.T) {
	cadence := &cadenceStub{value: "daily"}
	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	health := NewHealthServer(":0", testLogger())
	s := NewScheduler(SchedulerOptions{Job: noopJob, Cadence: cadence.read, Config: &cfg, Health: health, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		code, _ := getJSON(t, health.Handler(), "/health/ready")
		return code == 200
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "@daily", s.Spec())

	cadence.set("twicedaily", nil)
	require.Eventually(t, func() bool { return s.Spec() == "0 */12 * * *" }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	code, _ := getJSON(t, health.Handler(), "/health/ready")
	assert.Equal(t, 503, code)
}
