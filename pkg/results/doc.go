// Package results streams scenario outcomes of a regression run to external sinks
// (structured log, HTTP webhook, Kafka topic) while the run is still in progress.
package results
