package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func testEvent() (*entity.Event, *entity.Source) {
	return &entity.Event{
			ID:          7,
			Title:       "Sacramento Go Night",
			Description: "Talks about <Go> & services",
			StartDate:   time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC),
			Location:    "Hacker Lab, Sacramento",
			URL:         "https://example.com/go-night",
			ImageURL:    "https://example.com/go.png",
		}, &entity.Source{
			ID:   1,
			Name: "Sacramento Go",
		}
}

func TestDiscordNotifier_Payload(t *testing.T) {
	var got DiscordWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(WebhookConfig{Enabled: true, WebhookURL: srv.URL, Timeout: time.Second})
	ev, src := testEvent()
	require.NoError(t, n.NotifyEvent(context.Background(), ev, src))

	require.Len(t, got.Embeds, 1)
	e := got.Embeds[0]
	assert.Equal(t, "Sacramento Go Night", e.Title)
	assert.Equal(t, "https://example.com/go-night", e.URL)
	assert.Equal(t, "Sacramento Go", e.Footer.Text)
	assert.Equal(t, "2026-03-05T18:30:00Z", e.Timestamp)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "Thu, Mar 5 2026 6:30 PM", e.Fields[0].Value)
	assert.Equal(t, "Hacker Lab, Sacramento", e.Fields[1].Value)
	require.NotNil(t, e.Image)
	assert.Equal(t, "https://example.com/go.png", e.Image.URL)
}

func TestDiscordPayload_Truncates(t *testing.T) {
	ev, src := testEvent()
	ev.Title = strings.Repeat("t", 300)
	ev.Description = strings.Repeat("d", 5000)
	ev.Location = ""
	ev.ImageURL = ""

	p := buildDiscordPayload(ev, src)
	e := p.Embeds[0]
	assert.Len(t, e.Title, maxTitleLength)
	assert.Len(t, e.Description, maxDescriptionLength)
	assert.True(t, strings.HasSuffix(e.Description, "..."))
	assert.Len(t, e.Fields, 1)
	assert.Nil(t, e.Image)
}

func TestSlackNotifier_Payload(t *testing.T) {
	var got SlackWebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewSlackNotifier(WebhookConfig{Enabled: true, WebhookURL: srv.URL, Timeout: time.Second})
	ev, src := testEvent()
	require.NoError(t, n.NotifyEvent(context.Background(), ev, src))

	assert.Equal(t, "New event: Sacramento Go Night", got.Text)
	require.Len(t, got.Blocks, 3)
	assert.Equal(t, "*<https://example.com/go-night|Sacramento Go Night>*", got.Blocks[0].Text.Text)
	assert.Equal(t, "Talks about &lt;Go&gt; &amp; services", got.Blocks[1].Text.Text)
	assert.Equal(t, "context", got.Blocks[2].Type)
	assert.Contains(t, got.Blocks[2].Elements[0].Text, "Hacker Lab, Sacramento")
	assert.Contains(t, got.Blocks[2].Elements[0].Text, "Source: Sacramento Go")
}

func TestWebhook_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(WebhookConfig{Enabled: true, WebhookURL: srv.URL, Timeout: time.Second})
	n.retry = fastRetry()
	ev, src := testEvent()

	require.NoError(t, n.NotifyEvent(context.Background(), ev, src))
	assert.Equal(t, int32(2), calls.Load())
}

func TestWebhook_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Unknown Webhook"}`))
	}))
	defer srv.Close()

	n := NewSlackNotifier(WebhookConfig{Enabled: true, WebhookURL: srv.URL, Timeout: time.Second})
	n.retry = fastRetry()
	ev, src := testEvent()

	err := n.NotifyEvent(context.Background(), ev, src)
	var werr *WebhookError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, http.StatusNotFound, werr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWebhook_RateLimitUsesRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"You are being rate limited.","retry_after":0.01}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewDiscordNotifier(WebhookConfig{Enabled: true, WebhookURL: srv.URL, Timeout: time.Second})
	n.retry = fastRetry()
	ev, src := testEvent()

	require.NoError(t, n.NotifyEvent(context.Background(), ev, src))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 1500*time.Millisecond, retryAfter(resp, []byte(`{"retry_after":1.5}`)))

	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(resp, []byte(`not json`)))

	assert.Equal(t, 5*time.Second, retryAfter(&http.Response{Header: http.Header{}}, nil))
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 1)
	require.NoError(t, l.Allow(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Allow(ctx), "second token is a second away")
}

func TestNoOpNotifier(t *testing.T) {
	ev, src := testEvent()
	assert.NoError(t, NewNoOpNotifier().NotifyEvent(context.Background(), ev, src))
}
