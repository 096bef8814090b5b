// Package system holds process-wide plumbing shared by the harness: logger
// construction, request-scoped loggers for the webhook receiver and printf
// adapters for libraries with their own logging hooks.
package system
