// Package scraper implements the built-in source adapters: the Meetup-style
// JSON API, generic website scraping with an HTML event extractor, and RSS/Atom
// event feeds.
package scraper

import (
	"errors"
	"fmt"
)

// ErrInvalidSourceURL is returned by adapter constructors for unusable URLs.
var ErrInvalidSourceURL = errors.New("invalid source URL")

// HTTPError is returned when a source answers with a status other than 200.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// HTTPStatus returns the response status code.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}
