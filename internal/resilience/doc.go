// Package resilience groups the fault-tolerance helpers used around external calls.
//
//   - circuitbreaker: sony/gobreaker wrappers for text-generation providers,
//     readability page fetches and the database handle.
//   - retry: exponential backoff for startup connectivity checks and webhook delivery.
//
// Source fetches and enrichment calls are never retried; a failure there means
// the import proceeds without that data.
package resilience
