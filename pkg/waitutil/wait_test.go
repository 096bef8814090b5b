package waitutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fast = 5 * time.Millisecond

func counter(values ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}
}

func TestWaitForEqualsReturnsMatchingValue(t *testing.T) {
	got, err := WaitFor(context.Background(), Equals, "Completed",
		counter("Queued", "In Progress", "Completed"), time.Second, true, WithInterval(fast))
	require.NoError(t, err)
	assert.Equal(t, "Completed", got)
}

func TestWaitForDoesNotEqual(t *testing.T) {
	got, err := WaitFor(context.Background(), DoesNotEqual, "",
		counter("", "", "42"), time.Second, true, WithInterval(fast))
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}

func TestWaitForEvaluatesImmediately(t *testing.T) {
	calls := 0
	got, err := WaitFor(context.Background(), Equals, 200, func() (int, error) {
		calls++
		return 200, nil
	}, time.Second, true, WithInterval(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 200, got)
	assert.Equal(t, 1, calls)
}

func TestWaitForTimeoutWithFail(t *testing.T) {
	got, err := WaitFor(context.Background(), Equals, "Completed",
		counter("Queued", "In Progress"), 50*time.Millisecond, true, WithInterval(fast))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConditionNotMet)
	assert.Contains(t, err.Error(), "Equals Completed within 50ms")
	assert.Equal(t, "In Progress", got, "last observed value is returned")
}

func TestWaitForTimeoutWithoutFailIsSilent(t *testing.T) {
	got, err := WaitFor(context.Background(), Equals, 8, func() (int, error) {
		return 5, nil
	}, 30*time.Millisecond, false, WithInterval(fast))
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestWaitForSupplierErrorsKeepPolling(t *testing.T) {
	calls := 0
	got, err := WaitFor(context.Background(), Equals, 201, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("expected status code <201> but was <404>")
		}
		return 201, nil
	}, time.Second, true, WithInterval(fast))
	require.NoError(t, err)
	assert.Equal(t, 201, got)
	assert.Equal(t, 3, calls)
}

func TestWaitForTimeoutCarriesLastSupplierError(t *testing.T) {
	probeErr := errors.New("row not rendered")
	_, err := WaitFor(context.Background(), Equals, true, func() (bool, error) {
		return false, probeErr
	}, 30*time.Millisecond, true, WithInterval(fast))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConditionNotMet)
	assert.ErrorIs(t, err, probeErr)
}

func TestWaitForParentCancellationAlwaysReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WaitFor(ctx, Equals, 1, func() (int, error) { return 0, nil }, time.Second, false, WithInterval(fast))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrConditionNotMet)
}

func TestWaitForUnsupportedOperator(t *testing.T) {
	_, err := WaitFor(context.Background(), Operator(7), 1, func() (int, error) { return 1, nil }, time.Second, true)
	require.Error(t, err)
	assert.Equal(t, "Operator(7)", Operator(7).String())
}

func TestWaitForTrue(t *testing.T) {
	n := 0
	ok, err := WaitForTrue(context.Background(), func() (bool, error) {
		n++
		return n >= 2, nil
	}, time.Second, true, WithInterval(fast))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WaitForTrue(context.Background(), func() (bool, error) { return false, nil }, 20*time.Millisecond, false, WithInterval(fast))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUntil(t *testing.T) {
	attempts := 0
	ok, err := WaitForTrue(context.Background(), Until(func() error {
		attempts++
		if attempts < 2 {
			return errors.New("not yet")
		}
		return nil
	}), time.Second, true, WithInterval(fast))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRandomSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, RandomSleep(context.Background(), 5, 10, false))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomSleep(ctx, 4, 5, true), context.Canceled)

	// swapped bounds are tolerated
	require.NoError(t, RandomSleep(context.Background(), 2, 1, false))
}
