package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTB struct {
	logs    []string
	errors  []string
	failNow bool
}

func (f *fakeTB) Helper()      {}
func (f *fakeTB) Name() string { return "TestFake" }
func (f *fakeTB) Logf(format string, args ...interface{}) {
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}
func (f *fakeTB) Errorf(format string, args ...interface{}) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}
func (f *fakeTB) FailNow() { f.failNow = true }

func TestExecutePassesFirstTime(t *testing.T) {
	calls := 0
	res := Execute(3, func(a *Attempt) { calls++ })
	assert.True(t, res.Passed)
	assert.Equal(t, 1, res.Count())
	assert.Equal(t, 1, calls)
}

func TestExecuteRetriesUntilPass(t *testing.T) {
	res := Execute(3, func(a *Attempt) {
		require.GreaterOrEqual(a, a.Number(), 3, "flaky grid")
	})
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.Count())
	assert.True(t, res.Attempts[0].Failed)
	assert.True(t, res.Attempts[1].Failed)
	assert.False(t, res.Attempts[2].Failed)
}

func TestExecuteStopsAfterMaxRetries(t *testing.T) {
	calls := 0
	res := Execute(2, func(a *Attempt) {
		calls++
		assert.Fail(a, "always broken")
	})
	assert.False(t, res.Passed)
	assert.Equal(t, 3, calls, "maxRetries=2 allows three executions")
	require.Len(t, res.Errors(), 1)
	assert.Contains(t, res.Errors()[0], "always broken")
}

func TestExecuteZeroAndNegativeMeanSingleRun(t *testing.T) {
	for _, n := range []int{0, Inherit} {
		calls := 0
		res := Execute(n, func(a *Attempt) {
			calls++
			a.Errorf("fail")
		})
		assert.False(t, res.Passed)
		assert.Equal(t, 1, calls)
	}
}

func TestFailNowStopsOnlyTheAttempt(t *testing.T) {
	reached := false
	res := Execute(0, func(a *Attempt) {
		require.True(a, false)
		reached = true
	})
	assert.False(t, res.Passed)
	assert.False(t, reached)
}

func TestPanicBecomesFailure(t *testing.T) {
	res := Execute(1, func(a *Attempt) {
		if a.Number() == 1 {
			panic("stale element")
		}
	})
	assert.True(t, res.Passed)
	assert.Equal(t, []string{"panic: stale element"}, res.Attempts[0].Errors)
}

func TestCleanupPanicBecomesFailure(t *testing.T) {
	var ran []string
	res := Execute(0, func(a *Attempt) {
		a.Cleanup(func() { ran = append(ran, "delete application") })
		a.Cleanup(func() { panic("cleanup boom") })
	})
	require.False(t, res.Passed)
	assert.Equal(t, []string{"panic in cleanup: cleanup boom"}, res.Attempts[0].Errors)
	assert.Equal(t, []string{"delete application"}, ran, "earlier cleanups still run")
}

func TestCleanupsRunAfterEveryAttemptLIFO(t *testing.T) {
	var order []string
	Execute(1, func(a *Attempt) {
		n := a.Number()
		a.Cleanup(func() { order = append(order, fmt.Sprintf("first-%d", n)) })
		a.Cleanup(func() { order = append(order, fmt.Sprintf("second-%d", n)) })
		if n == 1 {
			a.FailNow()
		}
	})
	assert.Equal(t, []string{"second-1", "first-1", "second-2", "first-2"}, order)
}

func TestHooksAndName(t *testing.T) {
	var reports []Report
	var names []string
	Execute(1, func(a *Attempt) {
		names = append(names, a.Name())
		a.Logf("attempt %d", a.Number())
		a.Errorf("nope")
	}, WithName("WebHooks/assignReleases"), OnAttempt(func(r Report) { reports = append(reports, r) }),
		OnStart(func(a *Attempt) { assert.False(t, a.Failed()) }))

	assert.Equal(t, []string{"WebHooks/assignReleases", "WebHooks/assignReleases"}, names)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, reports[1].Number)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	res := Execute(5, func(a *Attempt) {
		calls++
		cancel()
		a.Errorf("fail")
	}, WithContext(ctx), WithDelay(time.Millisecond))
	assert.False(t, res.Passed)
	assert.Equal(t, 1, calls)
}

func TestRunReportsFinalAttemptOnT(t *testing.T) {
	tb := &fakeTB{}
	res := Run(tb, 1, func(a *Attempt) { a.Errorf("expected 1 assigned release, got %d", a.Number()+1) })

	assert.False(t, res.Passed)
	assert.True(t, tb.failNow)
	require.Len(t, tb.logs, 1)
	assert.Contains(t, tb.logs[0], "attempt 1/2 failed")
	assert.Equal(t, []string{"expected 1 assigned release, got 3", "failed after 2 attempt(s)"}, tb.errors)
}

func TestRunPassingLeavesTClean(t *testing.T) {
	tb := &fakeTB{}
	res := Run(tb, 2, func(a *Attempt) {
		if a.Number() == 1 {
			a.Errorf("first try flakes")
		}
	})
	assert.True(t, res.Passed)
	assert.False(t, tb.failNow)
	assert.Empty(t, tb.errors)
	assert.Len(t, tb.logs, 1)
}

func TestRunWithRealT(t *testing.T) {
	Run(t, 2, func(a *Attempt) {
		assert.Equal(a, 2, a.Number())
	})
}
