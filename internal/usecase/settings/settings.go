package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/pkg/config"
	"sactech-events/internal/repository"
)

// Settings is one consistent snapshot of the import configuration.
type Settings struct {
	MaxEventsPerImport int
	MinRelevanceScore  int
	DefaultStatus      entity.EventStatus
	AutoPublish        bool
	BlacklistKeywords  []string
	RequiredKeywords   []string
	RequestTimeout     time.Duration
	DisableSSLVerify   bool

	AIProvider           string
	AIAPIKey             string
	UseAIForDescriptions bool
	UseAIForSEO          bool
	DescriptionPrompt    string
	SEOPrompt            string
	EnhanceContent       bool

	ScheduleFrequency string
}

// Defaults returns the settings used for an empty option store.
func Defaults() *Settings {
	return &Settings{
		MaxEventsPerImport:   DefaultMaxEventsPerImport,
		MinRelevanceScore:    DefaultMinRelevanceScore,
		DefaultStatus:        entity.EventStatusDraft,
		RequestTimeout:       DefaultRequestTimeout * time.Second,
		AIProvider:           ProviderOpenAI,
		UseAIForDescriptions: true,
		UseAIForSEO:          true,
		DescriptionPrompt:    DefaultDescriptionPrompt,
		SEOPrompt:            DefaultSEOPrompt,
		ScheduleFrequency:    DefaultScheduleFrequency,
	}
}

// Store reads and writes options.
type Store struct {
	Repo repository.OptionRepository

	// Metrics is optional. Fallbacks are always logged.
	Metrics *config.ConfigMetrics
}

// Get returns the stored value for key, or def when the key is absent.
func (s *Store) Get(ctx context.Context, key, def string) (string, error) {
	v, found, err := s.Repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get option %s: %w", key, err)
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.Repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set option %s: %w", key, err)
	}
	return nil
}

// Load reads every known option. Only store failures are returned as errors.
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	out := Defaults()

	raw := make(map[string]string)
	for _, key := range []string{
		KeyMaxEventsPerImport, KeyMinRelevanceScore, KeyDefaultStatus, KeyAutoPublish,
		KeyBlacklistKeywords, KeyRequiredKeywords, KeyRequestTimeout, KeyDisableSSLVerify,
		KeyAIProvider, KeyAIAPIKey, KeyUseAIForDescriptions, KeyUseAIForSEO,
		KeyAIDescriptionPrompt, KeyAISEOPrompt, KeyScheduleFrequency, KeyEnhanceContent,
	} {
		v, err := s.Get(ctx, key, "")
		if err != nil {
			return nil, err
		}
		raw[key] = strings.TrimSpace(v)
	}

	intOpt := func(key string, def, lo, hi int) int {
		r := config.ParseInt(key, raw[key], def, config.IntRange(lo, hi))
		s.Metrics.Observe(key, r)
		return r.Value.(int)
	}
	boolOpt := func(key string, def bool) bool {
		r := config.ParseBool(key, raw[key], def)
		s.Metrics.Observe(key, r)
		return r.Value.(bool)
	}
	enumOpt := func(key, def string, allowed ...string) string {
		r := config.ParseString(key, raw[key], def, config.ValidateOneOf(allowed...))
		s.Metrics.Observe(key, r)
		return r.Value.(string)
	}

	out.MaxEventsPerImport = intOpt(KeyMaxEventsPerImport, DefaultMaxEventsPerImport, 1, 500)
	out.MinRelevanceScore = intOpt(KeyMinRelevanceScore, DefaultMinRelevanceScore, 0, 100)
	out.RequestTimeout = time.Duration(intOpt(KeyRequestTimeout, DefaultRequestTimeout, 5, 120)) * time.Second
	out.DefaultStatus = entity.EventStatus(enumOpt(KeyDefaultStatus, string(entity.EventStatusDraft),
		string(entity.EventStatusDraft), string(entity.EventStatusPending), string(entity.EventStatusPublish)))
	out.AIProvider = enumOpt(KeyAIProvider, ProviderOpenAI, ProviderOpenAI, ProviderClaude)
	out.ScheduleFrequency = enumOpt(KeyScheduleFrequency, DefaultScheduleFrequency,
		FrequencyHourly, FrequencyTwiceDaily, FrequencyDaily, FrequencyWeekly)

	out.AutoPublish = boolOpt(KeyAutoPublish, false)
	out.DisableSSLVerify = boolOpt(KeyDisableSSLVerify, false)
	out.UseAIForDescriptions = boolOpt(KeyUseAIForDescriptions, true)
	out.UseAIForSEO = boolOpt(KeyUseAIForSEO, true)
	out.EnhanceContent = boolOpt(KeyEnhanceContent, false)

	out.BlacklistKeywords = ParseKeywordList(raw[KeyBlacklistKeywords])
	out.RequiredKeywords = ParseKeywordList(raw[KeyRequiredKeywords])
	out.AIAPIKey = raw[KeyAIAPIKey]

	out.DescriptionPrompt = promptOpt(KeyAIDescriptionPrompt, raw[KeyAIDescriptionPrompt], DefaultDescriptionPrompt, s.Metrics)
	out.SEOPrompt = promptOpt(KeyAISEOPrompt, raw[KeyAISEOPrompt], DefaultSEOPrompt, s.Metrics)

	s.Metrics.RecordLoadTimestamp()
	return out, nil
}

// promptOpt accepts templates with exactly two %s verbs (title, text).
func promptOpt(key, raw, def string, m *config.ConfigMetrics) string {
	r := config.ParseString(key, raw, def, func(v string) error {
		if n := strings.Count(v, "%s"); n != 2 || strings.Count(v, "%") != 2 {
			return fmt.Errorf("template needs exactly two %%s verbs, found %d", n)
		}
		return nil
	})
	m.Observe(key, r)
	return r.Value.(string)
}

// CategoryMap returns the stored category map, or the built-in map when none
// is stored or the stored JSON is unusable.
func (s *Store) CategoryMap(ctx context.Context) (entity.CategoryMap, error) {
	v, err := s.Get(ctx, KeyCategoryMap, "")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(v) == "" {
		return entity.DefaultCategoryMap(), nil
	}
	var m entity.CategoryMap
	if err := json.Unmarshal([]byte(v), &m); err != nil || len(m) == 0 {
		s.Metrics.Observe(KeyCategoryMap, config.ConfigLoadResult{
			Warnings:        []string{fmt.Sprintf("Invalid %s: %v, falling back to default map", KeyCategoryMap, err)},
			FallbackApplied: true,
		})
		return entity.DefaultCategoryMap(), nil
	}
	return m, nil
}

// SetCategoryMap replaces the stored category map.
func (s *Store) SetCategoryMap(ctx context.Context, m entity.CategoryMap) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode category map: %w", err)
	}
	return s.Set(ctx, KeyCategoryMap, string(b))
}

// SetInt stores an integer option.
func (s *Store) SetInt(ctx context.Context, key string, v int) error {
	return s.Set(ctx, key, strconv.Itoa(v))
}

// SetBool stores a boolean option as "1" or "0".
func (s *Store) SetBool(ctx context.Context, key string, v bool) error {
	if v {
		return s.Set(ctx, key, "1")
	}
	return s.Set(ctx, key, "0")
}

// ParseKeywordList splits newline-separated keywords, trimming each entry and
// dropping empty lines.
func ParseKeywordList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if kw := strings.TrimSpace(line); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
