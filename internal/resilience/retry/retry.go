// Package retry repeats an operation with exponential backoff and jitter.
// Only the startup database ping and webhook delivery use it: source fetches
// and text-generation calls get exactly one attempt per run.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config is a backoff policy. The delay before retry n+1 is the previous
// delay times Multiplier, capped at MaxDelay, plus up to JitterFraction of it.
type Config struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64

	// ShouldRetry replaces IsRetryable when set.
	ShouldRetry func(error) bool
}

// DBConnectConfig keeps pinging for roughly half a minute while the database
// container starts. Every error except cancellation is retried.
func DBConnectConfig() Config {
	return Config{
		MaxAttempts:    6,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		ShouldRetry:    func(err error) bool { return !errors.Is(err, context.Canceled) },
	}
}

// WebhookConfig allows one more post after a transient failure.
func WebhookConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialDelay:   5 * time.Second,
		MaxDelay:       5 * time.Second,
		Multiplier:     1.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, fails with an error the policy does
// not retry, or runs out of attempts. Exhaustion wraps the last error.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsRetryable
	}

	delay := cfg.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		wait := jitter(delay, cfg.JitterFraction)
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
}

// StatusCoder is implemented by errors carrying an HTTP status, such as
// notifier.WebhookError.
type StatusCoder interface {
	HTTPStatus() int
}

// IsRetryable accepts network timeouts, refused or reset connections and
// 408, 429 and 5xx responses. Context errors are never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatus()
		return code >= 500 && code < 600 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
	}
	return false
}

func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
