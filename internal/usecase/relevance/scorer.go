// Package relevance computes 0-100 relevance scores for raw events.
//
// Two independent formulas exist. Scorer is the category-keyword model used
// by the filter engine. LegacyScore is the flat keyword model the import
// controller uses to decide whether an event is imported at all.
package relevance

import (
	"strings"

	"sactech-events/internal/domain/entity"
)

const (
	minScore = 0
	maxScore = 100

	titleTermBonus    = 15
	localityTermBonus = 15
)

// titleTerms boost the score once when any occurs in the title.
var titleTerms = []string{
	"hackathon", "meetup", "conference", "workshop", "webinar", "tech",
	"software", "developer", "coding", "programming", "startup",
}

// localityTerms boost the score once when any occurs in title or description.
var localityTerms = []string{
	"sacramento", "sac", "folsom", "roseville", "rocklin", "davis", "elk grove",
	"rancho cordova", "citrus heights", "natomas", "west sac", "downtown",
}

// AdjustFunc lets the host shift a computed score before it is clamped.
type AdjustFunc func(score int, event *entity.RawEvent) int

// Scorer scores events against a category keyword map.
type Scorer struct {
	// Adjust is optional.
	Adjust AdjustFunc
}

// NewScorer returns a Scorer applying adjust after the built-in rules.
func NewScorer(adjust AdjustFunc) *Scorer {
	return &Scorer{Adjust: adjust}
}

// Score returns the relevance of ev given the keywords in categories.
// The result is always within [0, 100].
func (s *Scorer) Score(ev *entity.RawEvent, categories entity.CategoryMap) int {
	content := strings.ToLower(ev.Title + " " + ev.Description)
	title := strings.ToLower(ev.Title)

	score := KeywordBand(CountKeywords(content, categories.Keywords()))

	if containsAny(title, titleTerms) {
		score += titleTermBonus
	}
	if containsAny(content, localityTerms) {
		score += localityTermBonus
	}

	if s != nil && s.Adjust != nil {
		score = s.Adjust(score, ev)
	}
	return clamp(score)
}

// CountKeywords returns how many of keywords occur in content as substrings.
// content and keywords are expected to be lowercase.
func CountKeywords(content string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(content, kw) {
			n++
		}
	}
	return n
}

// KeywordBand maps a keyword match count to its score bonus. Only the
// highest applicable band counts.
func KeywordBand(matches int) int {
	switch {
	case matches > 10:
		return 50
	case matches > 5:
		return 40
	case matches > 2:
		return 30
	case matches > 0:
		return 20
	}
	return 0
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	return max(minScore, min(maxScore, score))
}
