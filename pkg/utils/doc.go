// Package utils provides small shared helpers for the harness: retry with
// backoff for product API calls and glob matching for scenario filters.
package utils
