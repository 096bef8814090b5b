// Package mail sends the run summary of a regression run over SMTP, retrying
// failed deliveries with exponential backoff.
package mail
