// Package fetcher extracts the readable body of an event page. The importer
// uses it to lengthen descriptions that a listing only summarises.
package fetcher

import "errors"

// Sentinel errors for content fetching.
var (
	// ErrInvalidURL indicates a malformed URL or a scheme other than http(s).
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the host resolves into a private network.
	ErrPrivateIP = errors.New("URL resolves to private IP address")

	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response exceeded MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("content fetch timeout")

	// ErrReadabilityFailed indicates no readable text could be extracted.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
