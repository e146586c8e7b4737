package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when an ID does not resolve.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned by event stores from Create when the event URL
	// is already owned by another stored event.
	ErrDuplicate = errors.New("duplicate event identity")
)

// ValidationError reports a source field that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid source %s: %s", e.Field, e.Message)
}
