package waitutil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// DefaultTimeout for waits that do not state their own.
	DefaultTimeout = 60 * time.Second
	// DefaultInterval between polling attempts.
	DefaultInterval = time.Second
)

// ErrConditionNotMet is returned when fail-on-timeout is set and the supplier never
// produced the expected value within the duration.
var ErrConditionNotMet = errors.New("condition not met")

// Operator compares the supplied value against the expected one.
type Operator int

const (
	// Equals is satisfied when the supplied value equals the expected value.
	Equals Operator = iota
	// DoesNotEqual is satisfied when the supplied value differs from the expected value.
	DoesNotEqual
)

func (o Operator) String() string {
	switch o {
	case Equals:
		return "Equals"
	case DoesNotEqual:
		return "DoesNotEqual"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

type options struct {
	interval time.Duration
}

// Option tunes a wait.
type Option func(*options)

// WithInterval overrides the poll interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WaitFor evaluates supplier immediately and then every poll interval until the
// value satisfies op against expected or timeout elapses. It returns the last
// observed value. A supplier error counts as "not yet" and is kept for the
// timeout message. On timeout the error is non-nil only when fail is set.
// Cancellation of ctx itself is always reported.
func WaitFor[T comparable](ctx context.Context, op Operator, expected T, supplier func() (T, error), timeout time.Duration, fail bool, opts ...Option) (T, error) {
	o := options{interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if op != Equals && op != DoesNotEqual {
		var zero T
		return zero, fmt.Errorf("unsupported operator %s", op)
	}

	var (
		last    T
		lastErr error
	)
	err := wait.PollUntilContextTimeout(ctx, o.interval, timeout, true, func(context.Context) (bool, error) {
		v, err := supplier()
		if err != nil {
			lastErr = err
			return false, nil
		}
		last, lastErr = v, nil
		return matches(op, expected, v), nil
	})
	if err == nil {
		return last, nil
	}
	if ctx.Err() != nil {
		return last, fmt.Errorf("wait %s %v interrupted: %w", op, expected, ctx.Err())
	}
	if !fail {
		return last, nil
	}
	if lastErr != nil {
		return last, fmt.Errorf("%w: %s %v within %s (last value %v): %w", ErrConditionNotMet, op, expected, timeout, last, lastErr)
	}
	return last, fmt.Errorf("%w: %s %v within %s (last value %v)", ErrConditionNotMet, op, expected, timeout, last)
}

// WaitForTrue is WaitFor(Equals, true, ...).
func WaitForTrue(ctx context.Context, supplier func() (bool, error), timeout time.Duration, fail bool, opts ...Option) (bool, error) {
	return WaitFor(ctx, Equals, true, supplier, timeout, fail, opts...)
}

// Until adapts an error-only probe into a boolean supplier: the probe succeeds once
// it returns nil. Used for "keep asserting until the product catches up" waits.
func Until(probe func() error) func() (bool, error) {
	return func() (bool, error) {
		if err := probe(); err != nil {
			return false, err
		}
		return true, nil
	}
}

// RandomSleep sleeps a random duration in [min, max] seconds, or milliseconds when
// seconds is false. It returns early if ctx is done.
func RandomSleep(ctx context.Context, min, max int, seconds bool) error {
	if max < min {
		min, max = max, min
	}
	unit := time.Millisecond
	if seconds {
		unit = time.Second
	}
	n := min
	if max > min {
		n += rand.IntN(max - min + 1)
	}
	t := time.NewTimer(time.Duration(n) * unit)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func matches[T comparable](op Operator, expected, actual T) bool {
	if op == DoesNotEqual {
		return actual != expected
	}
	return actual == expected
}
