// Package browser drives Chrome over the DevTools protocol for the page objects.
// A Session wraps one browser with per-action timeouts, maps missing elements to
// testerr.ErrElementNotFound, captures console output and handles downloads into
// a dedicated directory.
package browser
