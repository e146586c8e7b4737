// Package fetch holds the source-kind registry and the orchestrator that pulls
// raw events from every active source.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrUnknownKind is returned when a source names a kind nobody registered.
	ErrUnknownKind = errors.New("unknown source kind")

	// ErrDuplicateKind is returned when the same kind ID is registered twice.
	ErrDuplicateKind = errors.New("source kind already registered")

	// ErrRegistrySealed is returned by Register once the first fetch has started.
	ErrRegistrySealed = errors.New("source kind registry is sealed")

	// ErrSourceNotFound indicates that no source exists with the given ID.
	ErrSourceNotFound = errors.New("source not found")
)
