// Package waitutil polls product state until it reaches an expected value.
//
// Almost every step of a regression scenario waits for something: a scan status
// to flip, a grid to fill, a report to finish rendering. WaitFor covers all of
// them with one contract: supplier, operator, expected value, timeout and a
// fail-on-timeout switch. The last observed value is always returned so callers
// can assert on it or log it.
package waitutil
