package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/usecase/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOptions struct {
	values map[string]string
	err    error
}

func (m *memOptions) Get(_ context.Context, key string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memOptions) Set(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func TestLoad_Defaults(t *testing.T) {
	store := &settings.Store{Repo: &memOptions{}}

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
	assert.Equal(t, 50, got.MaxEventsPerImport)
	assert.Equal(t, 50, got.MinRelevanceScore)
	assert.Equal(t, entity.EventStatusDraft, got.DefaultStatus)
	assert.Equal(t, 30*time.Second, got.RequestTimeout)
	assert.True(t, got.UseAIForDescriptions)
	assert.False(t, got.AutoPublish)
}

func TestLoad_StoredValues(t *testing.T) {
	store := &settings.Store{Repo: &memOptions{values: map[string]string{
		settings.KeyMaxEventsPerImport:  "120",
		settings.KeyMinRelevanceScore:   "65",
		settings.KeyDefaultStatus:       "pending",
		settings.KeyAutoPublish:         "1",
		settings.KeyBlacklistKeywords:   "kids\n  sale \n\n",
		settings.KeyRequestTimeout:      "45",
		settings.KeyDisableSSLVerify:    "true",
		settings.KeyAIProvider:          "claude",
		settings.KeyUseAIForSEO:         "0",
		settings.KeyScheduleFrequency:   "hourly",
		settings.KeyAIDescriptionPrompt: "Rewrite %s: %s",
	}}}

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, got.MaxEventsPerImport)
	assert.Equal(t, 65, got.MinRelevanceScore)
	assert.Equal(t, entity.EventStatusPending, got.DefaultStatus)
	assert.True(t, got.AutoPublish)
	assert.Equal(t, []string{"kids", "sale"}, got.BlacklistKeywords)
	assert.Nil(t, got.RequiredKeywords)
	assert.Equal(t, 45*time.Second, got.RequestTimeout)
	assert.True(t, got.DisableSSLVerify)
	assert.Equal(t, settings.ProviderClaude, got.AIProvider)
	assert.False(t, got.UseAIForSEO)
	assert.Equal(t, settings.FrequencyHourly, got.ScheduleFrequency)
	assert.Equal(t, "Rewrite %s: %s", got.DescriptionPrompt)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	store := &settings.Store{Repo: &memOptions{values: map[string]string{
		settings.KeyMaxEventsPerImport:  "0",
		settings.KeyMinRelevanceScore:   "150",
		settings.KeyDefaultStatus:       "published",
		settings.KeyAutoPublish:         "maybe",
		settings.KeyRequestTimeout:      "1",
		settings.KeyAIProvider:          "gemini",
		settings.KeyScheduleFrequency:   "every minute",
		settings.KeyAISEOPrompt:         "Only one %s here",
		settings.KeyAIDescriptionPrompt: "%s %s %d",
	}}}

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
}

func TestLoad_StoreError(t *testing.T) {
	store := &settings.Store{Repo: &memOptions{err: errors.New("connection refused")}}
	_, err := store.Load(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestGetSet(t *testing.T) {
	store := &settings.Store{Repo: &memOptions{}}
	ctx := context.Background()

	v, err := store.Get(ctx, "missing", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	require.NoError(t, store.SetInt(ctx, settings.KeyMinRelevanceScore, 70))
	require.NoError(t, store.SetBool(ctx, settings.KeyAutoPublish, true))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 70, got.MinRelevanceScore)
	assert.True(t, got.AutoPublish)
}

func TestCategoryMap(t *testing.T) {
	repo := &memOptions{}
	store := &settings.Store{Repo: repo}
	ctx := context.Background()

	m, err := store.CategoryMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCategoryMap(), m)

	custom := entity.CategoryMap{"Go": {"golang", "gophers"}}
	require.NoError(t, store.SetCategoryMap(ctx, custom))
	m, err = store.CategoryMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, m)

	repo.values[settings.KeyCategoryMap] = "{not json"
	m, err = store.CategoryMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCategoryMap(), m)
}

func TestParseKeywordList(t *testing.T) {
	assert.Nil(t, settings.ParseKeywordList(""))
	assert.Nil(t, settings.ParseKeywordList("\n \n"))
	assert.Equal(t, []string{"kids", "summer sale"}, settings.ParseKeywordList(" kids\r\nsummer sale\n"))
}
