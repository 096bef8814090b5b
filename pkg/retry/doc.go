// Package retry re-executes a whole test body when it fails, the way a
// MaxRetryCount annotation does for a flaky UI test. There is no distinction
// between transient and deterministic failures; the body simply gets up to N
// more chances.
package retry
