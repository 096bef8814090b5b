package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Inherit asks the runner to apply the configured default retry count.
const Inherit = -1

// TB is the subset of *testing.T that Run reports through.
type TB interface {
	Helper()
	Name() string
	Logf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	FailNow()
}

// Report describes one finished attempt.
type Report struct {
	Number   int
	Failed   bool
	Errors   []string
	Duration time.Duration
}

// Result is the outcome of a retried execution.
type Result struct {
	Attempts []Report
	Passed   bool
	Duration time.Duration
}

// Count is the number of executions, first run included.
func (r Result) Count() int { return len(r.Attempts) }

// Errors returns the failures of the final attempt.
func (r Result) Errors() []string {
	if len(r.Attempts) == 0 {
		return nil
	}
	return r.Attempts[len(r.Attempts)-1].Errors
}

type config struct {
	ctx       context.Context
	name      string
	delay     time.Duration
	log       *zap.SugaredLogger
	onAttempt func(Report)
	onStart   func(*Attempt)
}

// Option configures Execute and Run.
type Option func(*config)

// WithContext sets the context handed to every attempt.
func WithContext(ctx context.Context) Option {
	return func(c *config) { c.ctx = ctx }
}

// WithName names the retried body for logs.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDelay waits d between a failed attempt and the next one.
func WithDelay(d time.Duration) Option {
	return func(c *config) { c.delay = d }
}

// WithLogger logs each failed attempt.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *config) { c.log = log }
}

// OnAttempt is called after every attempt.
func OnAttempt(f func(Report)) Option {
	return func(c *config) { c.onAttempt = f }
}

// OnStart is called with every attempt before its body runs.
func OnStart(f func(*Attempt)) Option {
	return func(c *config) { c.onStart = f }
}

// Execute runs fn, re-running the whole body while it fails, at most maxRetries
// extra times. A maxRetries below zero is treated as zero. The loop also stops
// when the context is done.
func Execute(maxRetries int, fn func(*Attempt), opts ...Option) Result {
	cfg := config{ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	log := cfg.log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	start := time.Now()
	var res Result
	for n := 1; n <= maxRetries+1; n++ {
		a := newAttempt(cfg.ctx, cfg.name, n)
		if cfg.onStart != nil {
			cfg.onStart(a)
		}
		attemptStart := time.Now()
		a.run(fn)
		rep := Report{Number: n, Failed: a.Failed(), Errors: a.Errors(), Duration: time.Since(attemptStart)}
		res.Attempts = append(res.Attempts, rep)
		if cfg.onAttempt != nil {
			cfg.onAttempt(rep)
		}
		if !rep.Failed {
			res.Passed = true
			break
		}
		if n <= maxRetries {
			log.Warnw("Attempt failed, retrying", "name", cfg.name, "attempt", n, "maxRetryCount", maxRetries, "errors", rep.Errors)
			if !sleep(cfg.ctx, cfg.delay) {
				break
			}
		}
	}
	res.Duration = time.Since(start)
	return res
}

// Run is Execute bound to a test: earlier failed attempts are logged on t and the
// final attempt's failures fail t.
func Run(t TB, maxRetries int, fn func(*Attempt), opts ...Option) Result {
	t.Helper()
	opts = append([]Option{WithName(t.Name())}, opts...)
	res := Execute(maxRetries, fn, opts...)
	for _, rep := range res.Attempts[:len(res.Attempts)-1] {
		t.Logf("attempt %d/%d failed: %v", rep.Number, maxRetries+1, rep.Errors)
	}
	if !res.Passed {
		for _, msg := range res.Errors() {
			t.Errorf("%s", msg)
		}
		t.Errorf("failed after %d attempt(s)", res.Count())
		t.FailNow()
	}
	return res
}

func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
