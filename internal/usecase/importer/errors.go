// Package importer runs the import pipeline: fetch, score, resolve identity,
// enrich and persist.
package importer

import "errors"

// ErrRunPanicked is returned when a run was aborted by a recovered panic.
// The accompanying summary reflects the progress made before the panic.
var ErrRunPanicked = errors.New("import run aborted by panic")

// Skip reasons, used as Summary.Reasons keys and metric labels.
const (
	SkipBlacklisted = "blacklisted"
	SkipLowScore    = "low_score"
	SkipExists      = "already_exists"
	SkipStoreError  = "store_error"
)
