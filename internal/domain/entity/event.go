package entity

import (
	"strings"
	"time"
)

// DefaultEventDuration is applied when a source does not provide an end time.
const DefaultEventDuration = 2 * time.Hour

// EventStatus is the publication status of a persisted event.
type EventStatus string

const (
	EventStatusDraft   EventStatus = "draft"
	EventStatusPending EventStatus = "pending"
	EventStatusPublish EventStatus = "publish"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPending, EventStatusPublish:
		return true
	}
	return false
}

// RawEvent is an unvalidated event produced by a source adapter.
// It only lives for the duration of one import run.
type RawEvent struct {
	Title       string
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Location    string
	Organizer   string
	URL         string
	ImageURL    string
	ExternalID  string

	// Source is the configuration the event was fetched from.
	// Set by the fetch orchestrator, nil for adapter-level results.
	Source *Source
}

// HasTitle reports whether the event carries a non-blank title.
func (e *RawEvent) HasTitle() bool {
	return strings.TrimSpace(e.Title) != ""
}

// HasStartDate reports whether a start date was resolved.
func (e *RawEvent) HasStartDate() bool {
	return !e.StartDate.IsZero()
}

// EffectiveEndDate returns the end date, defaulting to start + DefaultEventDuration.
func (e *RawEvent) EffectiveEndDate() time.Time {
	if e.EndDate != nil && !e.EndDate.IsZero() {
		return *e.EndDate
	}
	return e.StartDate.Add(DefaultEventDuration)
}

// Verdict is the outcome of running an event through the filter.
type Verdict struct {
	Passed bool
	Score  int
	Reason string
}

// ScoredEvent couples a raw event with its filter verdict.
type ScoredEvent struct {
	Event   RawEvent
	Verdict Verdict

	// ExistingID is non-zero when the event resolves to an already stored identity.
	ExistingID int64
}

// SEOMeta is a search-engine title and description pair.
type SEOMeta struct {
	Title       string
	Description string
}

// Event is the durable record kept in the event store.
type Event struct {
	ID             int64
	SourceID       int64
	SourceKind     string
	Title          string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	Location       string
	Organizer      string
	URL            string
	ImageURL       string
	ExternalID     string
	Categories     []string
	RelevanceScore int
	Status         EventStatus
	SEOTitle       string
	SEODescription string
	ImportedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewEventFromRaw converts a raw event into a storable record.
// The caller sets status, score and categories.
func NewEventFromRaw(raw *RawEvent, importedAt time.Time) *Event {
	ev := &Event{
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		StartDate:   raw.StartDate,
		EndDate:     raw.EffectiveEndDate(),
		Location:    raw.Location,
		Organizer:   raw.Organizer,
		URL:         raw.URL,
		ImageURL:    raw.ImageURL,
		ExternalID:  raw.ExternalID,
		ImportedAt:  importedAt,
	}
	if raw.Source != nil {
		ev.SourceID = raw.Source.ID
		ev.SourceKind = raw.Source.Kind
	}
	return ev
}
