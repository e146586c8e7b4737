package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sactech-events/internal/resilience/retry"

	"github.com/google/uuid"
)

// WebhookConfig is shared by the Discord and Slack notifiers.
type WebhookConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// WebhookError is a non-2xx webhook response. 5xx and 429 are retried.
type WebhookError struct {
	Service    string
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *WebhookError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("%s rate limit exceeded (retry after %v)", e.Service, e.RetryAfter)
	}
	return fmt.Sprintf("%s webhook returned HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// HTTPStatus lets retry.IsRetryable classify the error.
func (e *WebhookError) HTTPStatus() int { return e.StatusCode }

// webhook posts JSON payloads with rate limiting and retries.
type webhook struct {
	service string
	config  WebhookConfig
	client  *http.Client
	limiter *RateLimiter
	retry   retry.Config
}

func newWebhook(service string, config WebhookConfig, limiter *RateLimiter) webhook {
	return webhook{
		service: service,
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: limiter,
		retry:   retry.WebhookConfig(),
	}
}

// deliver sends payload once the rate limiter allows it and retries transient
// failures. A 429 waits for the advertised retry-after before the next attempt.
func (w *webhook) deliver(ctx context.Context, eventID int64, payload any) error {
	requestID := uuid.New().String()
	log := slog.With(
		slog.String("request_id", requestID),
		slog.String("service", w.service),
		slog.Int64("event_id", eventID))

	if err := w.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	attempt := 0
	err = retry.WithBackoff(ctx, w.retry, func() error {
		attempt++
		err := w.post(ctx, body)
		var werr *WebhookError
		if errors.As(err, &werr) && werr.StatusCode == http.StatusTooManyRequests {
			log.Warn("webhook rate limited", slog.Duration("retry_after", werr.RetryAfter))
			select {
			case <-time.After(werr.RetryAfter):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return err
	})
	if err != nil {
		log.Error("webhook notification failed", slog.Int("attempts", attempt), slog.Any("error", err))
		return fmt.Errorf("%s notification: %w", w.service, err)
	}
	log.Info("webhook notification sent", slog.Int("attempts", attempt))
	return nil
}

func (w *webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &WebhookError{
		Service:    w.service,
		StatusCode: resp.StatusCode,
		RetryAfter: retryAfter(resp, respBody),
		Body:       string(respBody),
	}
}

// retryAfter reads retry_after (seconds) from a JSON body or the Retry-After
// header. Defaults to 5s.
func retryAfter(resp *http.Response, body []byte) time.Duration {
	var payload struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.RetryAfter > 0 {
		return time.Duration(payload.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// eventWhen renders the start time the way the site lists events.
func eventWhen(t time.Time) string {
	return t.Format("Mon, Jan 2 2006 3:04 PM")
}
