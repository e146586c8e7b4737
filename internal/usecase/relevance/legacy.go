package relevance

import (
	"strings"

	"sactech-events/internal/domain/entity"
)

const (
	legacyBase          = 50
	legacyTitleHit      = 5
	legacyDescHit       = 2
	legacyLocationBonus = 10
)

// legacyKeywords are matched case-sensitively against lowercased text, so the
// mixed-case entries never match. Existing scores depend on that.
var legacyKeywords = []string{
	"tech", "technology", "developer", "programming", "code", "software", "web",
	"mobile", "data", "cloud", "ai", "machine learning", "artificial intelligence",
	"startup", "cyber", "security", "blockchain", "DevOps", "UX", "UI", "design",
	"agile", "scrum", "javascript", "python", "java", "php", "ruby", "html", "css",
	"react", "angular", "vue", "node", "database", "api", "aws", "azure",
	"google cloud", "iot", "internet of things", "hackathon", "workshop", "meetup",
	"conference", "seminar", "networking",
}

var legacyLocations = []string{
	"sacramento", "sac", "davis", "folsom", "rocklin", "roseville", "elk grove",
	"rancho cordova", "citrus heights", "west sacramento", "woodland", "auburn",
	"placerville", "downtown", "midtown", "natomas",
}

// LegacyScore is the flat keyword model: base 50, +5 per keyword in the
// title, +2 per keyword in the description and +10 once when the location
// names a Sacramento-area place. The result is clamped to [0, 100].
func LegacyScore(ev *entity.RawEvent) int {
	score := legacyBase

	title := strings.ToLower(ev.Title)
	desc := strings.ToLower(ev.Description)
	for _, kw := range legacyKeywords {
		if strings.Contains(title, kw) {
			score += legacyTitleHit
		}
		if strings.Contains(desc, kw) {
			score += legacyDescHit
		}
	}

	if containsAny(strings.ToLower(ev.Location), legacyLocations) {
		score += legacyLocationBonus
	}
	return clamp(score)
}
