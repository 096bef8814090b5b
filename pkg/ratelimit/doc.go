// Package ratelimit provides keyed token-bucket limiters: per product host for
// outgoing REST calls and per client IP as Gin middleware for the webhook
// receiver, with automatic stale-entry cleanup.
package ratelimit
