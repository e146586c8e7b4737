package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	"sactech-events/internal/pkg/config"
)

// ContentFetchConfig controls page fetching for description enhancement.
// Whether enhancement runs at all is an option-store setting
// (enhance_short_descriptions); this struct only covers transport limits.
type ContentFetchConfig struct {
	// Threshold is the description length, in characters, below which the
	// event page is fetched. Default: 200
	Threshold int

	// Timeout bounds a single page request. Default: 10s
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length. Default: 5MB
	MaxBodySize int64

	// MaxRedirects caps redirect hops. Each hop is re-validated. Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects hosts resolving to loopback, private or
	// link-local addresses. Default: true
	DenyPrivateIPs bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Threshold:      200,
		Timeout:        10 * time.Second,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks the limits.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	minBodySize := int64(1024)
	maxBodySize := int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads CONTENT_FETCH_THRESHOLD, CONTENT_FETCH_TIMEOUT,
// CONTENT_FETCH_MAX_BODY_SIZE, CONTENT_FETCH_MAX_REDIRECTS and
// CONTENT_FETCH_DENY_PRIVATE_IPS. Invalid values fall back to their default
// and are reported through metrics (which may be nil).
func LoadConfigFromEnv(metrics *config.ConfigMetrics) ContentFetchConfig {
	def := DefaultConfig()
	cfg := def

	r := config.LoadEnvInt("CONTENT_FETCH_THRESHOLD", def.Threshold, config.IntRange(0, 100000))
	metrics.Observe("content_fetch_threshold", r)
	cfg.Threshold = r.Value.(int)

	r = config.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout, config.ValidatePositiveDuration)
	metrics.Observe("content_fetch_timeout", r)
	cfg.Timeout = r.Value.(time.Duration)

	r = config.LoadEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize), config.IntRange(1024, 100*1024*1024))
	metrics.Observe("content_fetch_max_body_size", r)
	cfg.MaxBodySize = int64(r.Value.(int))

	r = config.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects, config.IntRange(0, 10))
	metrics.Observe("content_fetch_max_redirects", r)
	cfg.MaxRedirects = r.Value.(int)

	r = config.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs)
	metrics.Observe("content_fetch_deny_private_ips", r)
	cfg.DenyPrivateIPs = r.Value.(bool)

	slog.Info("content fetch configuration loaded",
		slog.Int("threshold", cfg.Threshold),
		slog.Duration("timeout", cfg.Timeout),
		slog.Int64("max_body_size", cfg.MaxBodySize),
		slog.Int("max_redirects", cfg.MaxRedirects),
		slog.Bool("deny_private_ips", cfg.DenyPrivateIPs))
	return cfg
}
