// Package filter decides whether raw events qualify for import and resolves
// them against already stored events.
package filter

import "errors"

// ErrEmptyCategoryMap is returned when asked to store a category map with no categories.
var ErrEmptyCategoryMap = errors.New("category map must contain at least one category")

// Verdict reasons.
const (
	ReasonMissingTitle     = "Missing title"
	ReasonMissingStartDate = "Missing start date"
	ReasonMissingRequired  = "Missing required keyword"
)
