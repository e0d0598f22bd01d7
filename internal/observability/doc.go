// Package observability builds the process-wide logger and the metrics
// pipeline.
//
// Both are constructed once in cmd/rolegate and injected into components.
// Metrics are recorded through the OpenTelemetry API and exposed for scraping
// in Prometheus text format.
package observability
