// Package settings is a typed view over the option store.
//
// Every value is stored as a string. Load parses them with the fail-open
// loaders from internal/pkg/config: a malformed or out-of-range value is
// replaced by its default and a warning is logged.
package settings

// Option keys.
const (
	KeyMaxEventsPerImport   = "max_events_per_import"
	KeyMinRelevanceScore    = "min_relevance_score"
	KeyDefaultStatus        = "default_status"
	KeyAutoPublish          = "auto_publish"
	KeyBlacklistKeywords    = "blacklist_keywords"
	KeyRequiredKeywords     = "required_keywords"
	KeyCategoryMap          = "category_map"
	KeyRequestTimeout       = "request_timeout"
	KeyDisableSSLVerify     = "disable_ssl_verify"
	KeyAIProvider           = "ai_provider"
	KeyAIAPIKey             = "ai_api_key"
	KeyUseAIForDescriptions = "use_ai_for_descriptions"
	KeyUseAIForSEO          = "use_ai_for_seo"
	KeyAIDescriptionPrompt  = "ai_description_prompt"
	KeyAISEOPrompt          = "ai_seo_prompt"
	KeyScheduleFrequency    = "schedule_frequency"
	KeyEnhanceContent       = "enhance_short_descriptions"
)

// AI providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Schedule cadences.
const (
	FrequencyHourly     = "hourly"
	FrequencyTwiceDaily = "twicedaily"
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
)

const (
	DefaultMaxEventsPerImport = 50
	DefaultMinRelevanceScore  = 50
	DefaultRequestTimeout     = 30
	DefaultScheduleFrequency  = FrequencyDaily

	// DefaultDescriptionPrompt takes the event title and the original description.
	DefaultDescriptionPrompt = "Enhance the following tech event description for the event titled '%s'. " +
		"Improve clarity, add structure with better paragraphs, and make it more engaging for a tech audience in Sacramento. " +
		"Keep the technical accuracy but make it more readable:\n\n%s"

	// DefaultSEOPrompt takes the event title and a description truncated to 1000 characters.
	DefaultSEOPrompt = "Create SEO metadata for a tech event in Sacramento with this title: '%s' and description: '%s'. " +
		"Generate an SEO-friendly title and meta description. " +
		"Return only the title and description in this format: Title: [SEO title]\nDescription: [SEO description]. " +
		"The title should be under 60 characters and the description under 155 characters."
)
