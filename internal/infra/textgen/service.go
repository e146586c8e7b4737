package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/resilience/circuitbreaker"
	"sactech-events/internal/usecase/settings"
	"sactech-events/internal/utils/text"

	"github.com/sony/gobreaker"
)

// seoInputLimit is the number of description characters sent for SEO generation.
const seoInputLimit = 1000

var (
	seoTitleRe       = regexp.MustCompile(`Title: (.+)`)
	seoDescriptionRe = regexp.MustCompile(`(?s)Description: (.+)`)
)

// Provider completes a single prompt.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Prompts are fmt templates with two %s verbs: the title, then the text.
type Prompts struct {
	Description string
	SEO         string
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{Description: settings.DefaultDescriptionPrompt, SEO: settings.DefaultSEOPrompt}
}

// Service turns event text into enhanced descriptions and SEO metadata.
type Service struct {
	provider Provider
	breaker  *circuitbreaker.CircuitBreaker
	prompts  Prompts
	timeout  time.Duration
}

// NewService wraps provider. A nil breaker gets one built from
// circuitbreaker.TextGenConfig.
func NewService(provider Provider, breaker *circuitbreaker.CircuitBreaker, prompts Prompts, timeout time.Duration) *Service {
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.TextGenConfig(provider.Name()))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{provider: provider, breaker: breaker, prompts: prompts, timeout: timeout}
}

// EnhanceDescription asks the model to rewrite description for an event titled title.
func (s *Service) EnhanceDescription(ctx context.Context, title, description string) (string, error) {
	out, err := s.complete(ctx, opDescription, fmt.Sprintf(s.prompts.Description, title, description))
	if err != nil {
		return "", err
	}
	slog.Info("description enhanced", slog.String("title", title), slog.String("provider", s.provider.Name()))
	return out, nil
}

// GenerateSEOMeta asks for an SEO title and meta description. The description
// sent to the model is cut to 1000 characters.
func (s *Service) GenerateSEOMeta(ctx context.Context, title, description string) (entity.SEOMeta, error) {
	truncated := text.Truncate(description, seoInputLimit, "...")
	out, err := s.complete(ctx, opSEO, fmt.Sprintf(s.prompts.SEO, title, truncated))
	if err != nil {
		return entity.SEOMeta{}, err
	}
	meta, err := ParseSEOResponse(out)
	if err != nil {
		recordRequest(s.provider.Name(), opSEO, statusParseError)
		return entity.SEOMeta{}, err
	}
	return meta, nil
}

func (s *Service) complete(ctx context.Context, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	provider := s.provider.Name()
	start := time.Now()
	out, err := circuitbreaker.Do(s.breaker, func() (string, error) {
		return s.provider.Complete(ctx, prompt)
	})
	observeDuration(provider, op, time.Since(start))

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			recordRequest(provider, op, statusRejected)
			return "", ErrUnavailable
		}
		recordRequest(provider, op, statusError)
		slog.WarnContext(ctx, "text generation failed",
			slog.String("provider", provider),
			slog.String("operation", op),
			slog.Any("error", err))
		return "", err
	}
	recordRequest(provider, op, statusSuccess)
	return out, nil
}

// ParseSEOResponse extracts the "Title:" line and everything after
// "Description:". Both must be non-empty.
func ParseSEOResponse(content string) (entity.SEOMeta, error) {
	var meta entity.SEOMeta
	if m := seoTitleRe.FindStringSubmatch(content); m != nil {
		meta.Title = strings.TrimSpace(m[1])
	}
	if m := seoDescriptionRe.FindStringSubmatch(content); m != nil {
		meta.Description = strings.TrimSpace(m[1])
	}
	if meta.Title == "" || meta.Description == "" {
		return entity.SEOMeta{}, ErrUnparseableSEO
	}
	return meta, nil
}

// NoOp is used when no API key is configured. Every call fails with ErrNoAPIKey.
type NoOp struct{}

// EnhanceDescription always returns ErrNoAPIKey.
func (NoOp) EnhanceDescription(context.Context, string, string) (string, error) {
	return "", ErrNoAPIKey
}

// GenerateSEOMeta always returns ErrNoAPIKey.
func (NoOp) GenerateSEOMeta(context.Context, string, string) (entity.SEOMeta, error) {
	return entity.SEOMeta{}, ErrNoAPIKey
}

// Generator is implemented by Service and NoOp.
type Generator interface {
	EnhanceDescription(ctx context.Context, title, description string) (string, error)
	GenerateSEOMeta(ctx context.Context, title, description string) (entity.SEOMeta, error)
}

// Factory builds a Generator from the settings of each run. Breakers are kept
// per provider across runs.
type Factory struct {
	// EnvKeys supply API keys when the option store has none.
	EnvKeys map[string]string

	// Configs override the per-provider defaults.
	Configs map[string]Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// For returns the generator selected by cfg.AIProvider.
func (f *Factory) For(cfg *settings.Settings) Generator {
	key := cfg.AIAPIKey
	if key == "" {
		key = f.EnvKeys[cfg.AIProvider]
	}
	if key == "" {
		return NoOp{}
	}

	var provider Provider
	switch cfg.AIProvider {
	case settings.ProviderClaude:
		provider = NewClaude(key, f.config(settings.ProviderClaude, DefaultClaudeConfig()))
	default:
		provider = NewOpenAI(key, f.config(settings.ProviderOpenAI, DefaultOpenAIConfig()))
	}

	prompts := Prompts{Description: cfg.DescriptionPrompt, SEO: cfg.SEOPrompt}
	if prompts.Description == "" || prompts.SEO == "" {
		prompts = DefaultPrompts()
	}
	return NewService(provider, f.breaker(provider.Name()), prompts, f.config(provider.Name(), Config{}).Timeout)
}

func (f *Factory) config(provider string, def Config) Config {
	if c, ok := f.Configs[provider]; ok {
		return c
	}
	return def
}

func (f *Factory) breaker(provider string) *circuitbreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.breakers == nil {
		f.breakers = make(map[string]*circuitbreaker.CircuitBreaker)
	}
	cb, ok := f.breakers[provider]
	if !ok {
		cb = circuitbreaker.New(circuitbreaker.TextGenConfig(provider))
		f.breakers[provider] = cb
	}
	return cb
}
