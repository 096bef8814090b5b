package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fodqa/fod-regression/pkg/metrics"
	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/telemetry"
)

// Runner executes classes and collects a Report.
type Runner struct {
	env        *Env
	parallel   int
	maxRetries int
	retryDelay time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithParallel runs up to n classes at the same time. Scenarios of one class
// always run sequentially.
func WithParallel(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithDefaultMaxRetryCount applies n to scenarios declaring retry.Inherit.
func WithDefaultMaxRetryCount(n int) RunnerOption {
	return func(r *Runner) { r.maxRetries = n }
}

// WithRetryDelay waits d before re-running a failed attempt.
func WithRetryDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.retryDelay = d }
}

// NewRunner takes its defaults from env.Config.
func NewRunner(env *Env, opts ...RunnerOption) *Runner {
	r := &Runner{
		env:        env,
		parallel:   env.Config.Runner.Parallel,
		maxRetries: env.Config.Retry.MaxRetryCount,
	}
	if r.parallel <= 0 {
		r.parallel = 1
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes classes and returns the report. The error is non-nil only when
// a class cannot be ordered or ctx ends the run early; scenario failures are
// in the report.
func (r *Runner) Run(ctx context.Context, classes []*Class) (*Report, error) {
	plans := make([][]Scenario, len(classes))
	for i, c := range classes {
		ordered, err := orderScenarios(c)
		if err != nil {
			return nil, err
		}
		plans[i] = ordered
	}

	report := &Report{RunID: r.env.RunID, Started: time.Now()}
	r.env.emit(&results.Event{Type: results.EventRunStarted, Details: map[string]interface{}{"classes": len(classes)}})
	r.env.Log.Infow("Run started", "runId", r.env.RunID, "classes", len(classes), "parallel", r.parallel)

	perClass := make([][]ScenarioResult, len(classes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i := range classes {
		i := i
		g.Go(func() error {
			perClass[i] = r.runClass(gctx, classes[i], plans[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range perClass {
		report.Results = append(report.Results, res...)
	}
	report.Finished = time.Now()
	r.env.emit(&results.Event{
		Type:     results.EventRunFinished,
		Duration: report.Duration(),
		Details: map[string]interface{}{
			"passed":  report.Passed(),
			"failed":  report.Failed(),
			"skipped": report.Skipped(),
		},
	})
	r.env.Log.Infow("Run finished", "runId", r.env.RunID, "passed", report.Passed(), "failed", report.Failed(),
		"skipped", report.Skipped(), "duration", report.Duration())
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}
	return report, nil
}

func (r *Runner) runClass(ctx context.Context, class *Class, plan []Scenario) []ScenarioResult {
	ctx, span := telemetry.StartSpan(ctx, "class "+class.Name, telemetry.AttrClass.String(class.Name))
	state := newState()
	out := make([]ScenarioResult, 0, len(plan))
	passed := map[string]bool{}

	var setupErr error
	if class.Setup != nil {
		setupErr = recoverHook("setup", func() error {
			return class.Setup(newContext(ctx, r.env, class.Name, "setup", 0, state))
		})
		if setupErr != nil {
			r.env.Log.Errorw("Class setup failed", "class", class.Name, "error", setupErr)
		}
	}

	for _, sc := range plan {
		var res ScenarioResult
		switch {
		case ctx.Err() != nil:
			res = r.skip(class, sc, "run interrupted")
		case setupErr != nil:
			res = r.newResult(class, sc)
			res.Status = results.StatusFailed
			res.Errors = []string{"class setup failed: " + setupErr.Error()}
			r.finish(res)
		case sc.Disabled:
			res = r.skip(class, sc, "disabled")
		default:
			if missing := unmetDependencies(sc, passed); len(missing) > 0 {
				res = r.skip(class, sc, "depends on "+strings.Join(missing, ", ")+" which did not pass")
			} else {
				res = r.runScenario(ctx, class, sc, state)
			}
		}
		passed[sc.Name] = res.Status == results.StatusPassed
		out = append(out, res)
	}

	if class.Teardown != nil {
		if err := recoverHook("teardown", func() error {
			return class.Teardown(newContext(context.WithoutCancel(ctx), r.env, class.Name, "teardown", 0, state))
		}); err != nil {
			r.env.Log.Warnw("Class teardown failed", "class", class.Name, "error", err)
		}
	}
	var spanErr error
	for _, res := range out {
		if res.Status == results.StatusFailed {
			spanErr = errors.New("class has failed scenarios")
			break
		}
	}
	telemetry.EndSpan(span, spanErr)
	return out
}

// recoverHook turns a panic in a class hook into an error so one class cannot
// take down the other classes running next to it.
func recoverHook(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", hook, r)
		}
	}()
	return fn()
}

func unmetDependencies(sc Scenario, passed map[string]bool) []string {
	var missing []string
	for _, dep := range sc.DependsOn {
		if !passed[dep] {
			missing = append(missing, dep)
		}
	}
	return missing
}

func (r *Runner) newResult(class *Class, sc Scenario) ScenarioResult {
	return ScenarioResult{
		Class:       class.Name,
		Scenario:    sc.Name,
		Description: sc.Description,
		Owner:       sc.Owner,
		BacklogItem: sc.BacklogItem,
		Groups:      sc.Groups,
	}
}

func (r *Runner) skip(class *Class, sc Scenario, reason string) ScenarioResult {
	res := r.newResult(class, sc)
	res.Status = results.StatusSkipped
	res.SkipReason = reason
	r.env.Log.Infow("Scenario skipped", "class", class.Name, "scenario", sc.Name, "reason", reason)
	r.finish(res)
	return res
}

func (r *Runner) retriesFor(sc Scenario) int {
	if sc.MaxRetryCount == retry.Inherit {
		return r.maxRetries
	}
	return sc.MaxRetryCount
}

func (r *Runner) runScenario(ctx context.Context, class *Class, sc Scenario, state *State) ScenarioResult {
	ctx, span := telemetry.StartSpan(ctx, "scenario "+class.Name+"/"+sc.Name,
		telemetry.ScenarioAttributes(class.Name, sc.Name, sc.BacklogItem)...)

	r.env.emit(&results.Event{
		Type: results.EventScenarioStarted, Class: class.Name, Scenario: sc.Name,
		Groups: sc.Groups, BacklogItem: sc.BacklogItem,
	})
	r.env.Log.Infow("Scenario started", "class", class.Name, "scenario", sc.Name, "description", sc.Description)

	maxRetries := r.retriesFor(sc)
	outcome := retry.Execute(maxRetries, func(a *retry.Attempt) {
		sc.Run(newContext(a.Context(), r.env, class.Name, sc.Name, a.Number(), state), a)
	},
		retry.WithContext(ctx),
		retry.WithName(class.Name+"/"+sc.Name),
		retry.WithLogger(r.env.Log),
		retry.WithDelay(r.retryDelay),
		retry.OnAttempt(func(rep retry.Report) {
			label := "passed"
			if rep.Failed {
				label = "failed"
				r.env.emit(&results.Event{
					Type: results.EventAttemptFailed, Class: class.Name, Scenario: sc.Name,
					Attempt: rep.Number, Duration: rep.Duration, Error: strings.Join(rep.Errors, "; "),
				})
			}
			metrics.ScenarioAttempts.WithLabelValues(class.Name, label).Inc()
		}),
	)

	res := r.newResult(class, sc)
	res.Attempts = outcome.Count()
	res.Duration = outcome.Duration
	res.Status = results.StatusPassed
	if !outcome.Passed {
		res.Status = results.StatusFailed
		res.Errors = outcome.Errors()
	}
	r.finish(res)

	var spanErr error
	if !outcome.Passed {
		spanErr = errors.New(strings.Join(res.Errors, "; "))
	}
	span.SetAttributes(attribute.Int("fodtest.attempts", res.Attempts))
	telemetry.EndSpan(span, spanErr)
	return res
}

func (r *Runner) finish(res ScenarioResult) {
	metrics.ScenariosTotal.WithLabelValues(res.Class, string(res.Status)).Inc()
	if res.Status != results.StatusSkipped {
		metrics.ScenarioDuration.WithLabelValues(res.Class).Observe(res.Duration.Seconds())
	}
	ev := &results.Event{
		Type: results.EventScenarioFinished, Class: res.Class, Scenario: res.Scenario,
		Attempt: res.Attempts, Status: res.Status, Duration: res.Duration,
		Groups: res.Groups, BacklogItem: res.BacklogItem,
	}
	if len(res.Errors) > 0 {
		ev.Error = strings.Join(res.Errors, "; ")
	}
	if res.SkipReason != "" {
		ev.Details = map[string]interface{}{"skipReason": res.SkipReason}
	}
	r.env.emit(ev)
	if res.Status == results.StatusFailed {
		r.env.Log.Errorw("Scenario failed", "class", res.Class, "scenario", res.Scenario, "attempts", res.Attempts, "errors", res.Errors)
	} else if res.Status == results.StatusPassed {
		r.env.Log.Infow("Scenario passed", "class", res.Class, "scenario", res.Scenario, "attempts", res.Attempts, "duration", res.Duration)
	}
}
