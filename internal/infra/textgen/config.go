// Package textgen rewrites event descriptions and produces SEO metadata with
// a hosted language model (OpenAI or Anthropic Claude).
//
// Every call is a single attempt guarded by a per-provider circuit breaker.
// Callers treat any error as "keep the original text".
package textgen

import (
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt frames every request.
const DefaultSystemPrompt = "You are a helpful assistant specializing in creating high-quality content for tech events in Sacramento."

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 45 * time.Second

// Sentinel errors.
var (
	// ErrNoAPIKey is returned by every call when no API key is configured.
	ErrNoAPIKey = errors.New("textgen: API key not available")

	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("textgen: provider returned empty response")

	// ErrUnparseableSEO is returned when an SEO reply lacks a title or description line.
	ErrUnparseableSEO = errors.New("textgen: could not parse SEO response")

	// ErrUnavailable is returned while the provider's circuit breaker is open.
	ErrUnavailable = errors.New("textgen: provider unavailable, circuit breaker open")
)

// Config holds the request parameters shared by both providers.
type Config struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	SystemPrompt string

	// BaseURL overrides the provider endpoint. Empty means the public API.
	BaseURL string
}

// DefaultOpenAIConfig returns gpt-3.5-turbo with temperature 0.7 and 500 max tokens.
func DefaultOpenAIConfig() Config {
	return Config{
		Model:        openai.GPT3Dot5Turbo,
		MaxTokens:    500,
		Temperature:  0.7,
		Timeout:      DefaultTimeout,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// DefaultClaudeConfig mirrors DefaultOpenAIConfig on a Claude model.
func DefaultClaudeConfig() Config {
	return Config{
		Model:        string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:    500,
		Temperature:  0.7,
		Timeout:      DefaultTimeout,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// Validate checks the request parameters.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}
