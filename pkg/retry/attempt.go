package retry

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Attempt is one execution of a retried test body. It satisfies the testify
// assert.TestingT and require.TestingT interfaces so assertions can be written
// against it exactly as against *testing.T. FailNow ends only the attempt.
type Attempt struct {
	ctx    context.Context
	name   string
	number int

	mu       sync.Mutex
	failed   bool
	errors   []string
	logs     []string
	cleanups []func()
}

func newAttempt(ctx context.Context, name string, number int) *Attempt {
	return &Attempt{ctx: ctx, name: name, number: number}
}

// Errorf records a failure and lets the attempt continue.
func (a *Attempt) Errorf(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = true
	a.errors = append(a.errors, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// FailNow marks the attempt failed and stops its goroutine.
func (a *Attempt) FailNow() {
	a.mu.Lock()
	a.failed = true
	a.mu.Unlock()
	runtime.Goexit()
}

// Fatalf is Errorf followed by FailNow.
func (a *Attempt) Fatalf(format string, args ...interface{}) {
	a.Errorf(format, args...)
	a.FailNow()
}

// Logf records a log line for the attempt.
func (a *Attempt) Logf(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, fmt.Sprintf(format, args...))
}

// Helper is a no-op; it exists so testify treats Attempt like a testing.T.
func (a *Attempt) Helper() {}

// Cleanup registers f to run when the attempt finishes, last registered first.
func (a *Attempt) Cleanup(f func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups = append(a.cleanups, f)
}

// Name returns the name of the retried test.
func (a *Attempt) Name() string { return a.name }

// Number is the 1-based attempt number.
func (a *Attempt) Number() int { return a.number }

// Context is cancelled when the run is aborted.
func (a *Attempt) Context() context.Context { return a.ctx }

// Failed reports whether the attempt recorded a failure.
func (a *Attempt) Failed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Errors returns the failure messages recorded so far.
func (a *Attempt) Errors() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.errors...)
}

// Logs returns the log lines recorded so far.
func (a *Attempt) Logs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.logs...)
}

func (a *Attempt) runCleanups() {
	a.mu.Lock()
	cleanups := a.cleanups
	a.cleanups = nil
	a.mu.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		a.runCleanup(cleanups[i])
	}
}

// runCleanup keeps a panicking cleanup from skipping the ones registered
// before it.
func (a *Attempt) runCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.Errorf("panic in cleanup: %v", r)
		}
	}()
	fn()
}

// run executes fn on its own goroutine so FailNow can unwind it. Panics in fn
// and in its cleanups are converted into failures.
func (a *Attempt) run(fn func(*Attempt)) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer a.runCleanups()
		defer func() {
			if r := recover(); r != nil {
				a.Errorf("panic: %v", r)
			}
		}()
		fn(a)
	}()
	<-done
}
