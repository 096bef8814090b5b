package utils

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryConfig defines the configuration for retry operations
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries)
	MaxRetries int `yaml:"maxRetries"`
	// InitialBackoff is the initial backoff duration before the first retry
	InitialBackoff time.Duration `yaml:"-"`
	// MaxBackoff is the maximum backoff duration between retries
	MaxBackoff time.Duration `yaml:"-"`
	// BackoffMultiplier is the factor by which backoff is multiplied after each retry
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// DefaultRetryConfig returns the retry policy used for product API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryAfterError is implemented by errors that carry a server-provided delay,
// e.g. an HTTP 429 with a Retry-After header.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// RetryWithBackoff runs op until it succeeds, shouldRetry rejects its error, or the
// retries are used up. The last error is returned. A server-provided delay
// overrides the computed backoff for that wait.
func RetryWithBackoff(ctx context.Context, config RetryConfig, shouldRetry func(error) bool, op func() error) error {
	backoff := config.InitialBackoff
	multiplier := config.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	var err error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		if attempt >= config.MaxRetries {
			break
		}

		wait := backoff
		var ra RetryAfterError
		if errors.As(err, &ra) && ra.RetryAfter() > 0 {
			wait = ra.RetryAfter()
		}

		zap.S().Debugw("Operation failed, retrying",
			"attempt", attempt+1,
			"maxRetries", config.MaxRetries,
			"backoff", wait.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * multiplier)
		if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
	return err
}
