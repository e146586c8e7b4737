package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidEvent indicates a nil event or one without a title.
	ErrInvalidEvent = errors.New("invalid event data")

	// ErrInvalidSource indicates a nil source.
	ErrInvalidSource = errors.New("invalid source data")
)
