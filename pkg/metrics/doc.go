// Package metrics defines Prometheus metrics for regression runs, covering
// scenario outcomes and retries, product API calls, result sinks, downloads,
// mail delivery and captured webhook deliveries.
package metrics
