package entity

import (
	"strings"
	"time"
)

// SourceStatus is the lifecycle state of a configured event source.
// "deleted" is terminal: rows are never physically removed.
type SourceStatus string

const (
	SourceStatusActive   SourceStatus = "active"
	SourceStatusInactive SourceStatus = "inactive"
	SourceStatusDeleted  SourceStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s SourceStatus) Valid() bool {
	switch s {
	case SourceStatusActive, SourceStatusInactive, SourceStatusDeleted:
		return true
	}
	return false
}

// Built-in source kinds. Additional kinds can be registered at startup.
const (
	SourceKindMeetup  = "meetup"
	SourceKindWebsite = "website"
	SourceKindRSS     = "rss"
)

// Source is a configured external origin of event listings.
type Source struct {
	ID            int64
	Name          string
	Kind          string
	URL           string
	Status        SourceStatus
	LastCheckedAt *time.Time
	CreatedAt     time.Time
}

// IsActive reports whether the source takes part in scheduled imports.
func (s *Source) IsActive() bool {
	return s.Status == SourceStatusActive
}

// Validate checks the fields an administrator supplies when creating or editing a source.
// Whether Kind is actually registered is checked by the source usecase, which owns the registry.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(s.Kind) == "" {
		return &ValidationError{Field: "kind", Message: "kind is required"}
	}
	if s.Status != "" && !s.Status.Valid() {
		return &ValidationError{Field: "status", Message: "status must be one of active, inactive, deleted"}
	}
	return ValidateURL(s.URL)
}
