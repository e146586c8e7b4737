// Package source provides use cases for managing event sources.
// It validates source kinds against the adapter registry and URLs against
// entity.ValidateURL before delegating persistence to the source repository.
package source

import "errors"

// Sentinel errors for source use case operations.
var (
	// ErrSourceNotFound indicates that the requested source was not found
	// or has been deleted.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUnknownKind indicates that no adapter is registered for the kind.
	ErrUnknownKind = errors.New("unknown source kind")
)
