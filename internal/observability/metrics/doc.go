// Package metrics provides the Prometheus collectors for the import pipeline.
//
// All collectors are registered with the default registry through promauto and
// exposed on the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	events, err := adapter.FetchEvents(ctx, limit)
//	if err != nil {
//	    metrics.RecordSourceFetchError(src.Kind)
//	    return
//	}
//	metrics.RecordSourceFetch(src.Kind, len(events), time.Since(start))
package metrics
