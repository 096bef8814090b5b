package suite

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/system"
)

func pass(*Context, *retry.Attempt) {}

func fail(_ *Context, a *retry.Attempt) { require.Fail(a, "boom") }

func names(sc []Scenario) []string {
	out := make([]string, len(sc))
	for i, s := range sc {
		out[i] = s.Name
	}
	return out
}

func TestOrderScenarios(t *testing.T) {
	c := &Class{Name: "WebHooks", Scenarios: []Scenario{
		{Name: "assign", DependsOn: []string{"prepare"}},
		{Name: "deliveries", DependsOn: []string{"assign", "prepare"}},
		{Name: "prepare"},
		{Name: "standalone"},
	}}
	ordered, err := orderScenarios(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"prepare", "assign", "deliveries", "standalone"}, names(ordered))
}

func TestOrderScenariosErrors(t *testing.T) {
	tests := []struct {
		name  string
		class *Class
		want  string
	}{
		{"cycle", &Class{Name: "C", Scenarios: []Scenario{{Name: "a", DependsOn: []string{"b"}}, {Name: "b", DependsOn: []string{"a"}}}}, "dependency cycle"},
		{"unknown", &Class{Name: "C", Scenarios: []Scenario{{Name: "a", DependsOn: []string{"x"}}}}, "unknown scenario x"},
		{"duplicate", &Class{Name: "C", Scenarios: []Scenario{{Name: "a"}, {Name: "a"}}}, "duplicate scenario a"},
		{"unnamed", &Class{Name: "C", Scenarios: []Scenario{{}}}, "has no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orderScenarios(tt.class)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Class{Name: "WebHooks", Scenarios: []Scenario{
		{Name: "prepare", Groups: []string{"regression"}},
		{Name: "assign", Groups: []string{"regression", "webhooks"}, DependsOn: []string{"prepare"}},
		{Name: "deliveries", Groups: []string{"nightly"}, DependsOn: []string{"assign"}},
	}}))
	require.NoError(t, r.Register(&Class{Name: "Applications", Scenarios: []Scenario{
		{Name: "create", Groups: []string{"regression"}},
	}}))
	require.Error(t, r.Register(&Class{Name: "WebHooks"}))
	require.Error(t, r.Register(&Class{}))
	require.Error(t, r.Register(&Class{Name: "Broken", Scenarios: []Scenario{{Name: "a", DependsOn: []string{"a"}}}}))

	classes := r.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "Applications", classes[0].Name)
	assert.Equal(t, []string{"nightly", "regression", "webhooks"}, r.Groups())

	sel := r.Select(Filter{Groups: []string{"nightly"}})
	require.Len(t, sel, 1)
	assert.Equal(t, []string{"prepare", "assign", "deliveries"}, names(sel[0].Scenarios))

	sel = r.Select(Filter{Names: []string{"WebHooks/assign"}})
	require.Len(t, sel, 1)
	assert.Equal(t, []string{"prepare", "assign"}, names(sel[0].Scenarios))

	sel = r.Select(Filter{Names: []string{"Appl*"}})
	require.Len(t, sel, 1)
	assert.Equal(t, "Applications", sel[0].Name)

	assert.Empty(t, r.Select(Filter{Groups: []string{"smoke"}}))

	sel = r.Select(Filter{Groups: []string{"web*"}})
	require.Len(t, sel, 1)
	assert.Equal(t, []string{"prepare", "assign"}, names(sel[0].Scenarios))
	assert.True(t, sel[0].Scenarios[1].HasGroup("webhooks"))
	// selection works on copies
	assert.Len(t, r.Classes()[1].Scenarios, 3)
}

type memorySink struct {
	mu     sync.Mutex
	events []*results.Event
}

func (s *memorySink) Write(_ context.Context, e *results.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}
func (s *memorySink) Close() error { return nil }
func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) types() []results.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []results.EventType
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestEnv(t *testing.T) (*Env, *memorySink) {
	cfg := config.Config{}
	cfg.Retry.MaxRetryCount = 2
	env := NewEnv(cfg, system.NewTestLogger())
	sink := &memorySink{}
	env.Results = results.NewManager([]results.Sink{sink}, results.ManagerConfig{}, zap.NewNop())
	t.Cleanup(func() { _ = env.Results.Close() })
	return env, sink
}

func byName(r *Report) map[string]ScenarioResult {
	out := map[string]ScenarioResult{}
	for _, res := range r.Results {
		out[res.Class+"/"+res.Scenario] = res
	}
	return out
}

func TestRunnerRetriesAndDependencies(t *testing.T) {
	env, sink := newTestEnv(t)
	var flaky atomic.Int32
	class := &Class{Name: "WebHooks", Scenarios: []Scenario{
		{Name: "prepare", MaxRetryCount: 1, Run: func(c *Context, a *retry.Attempt) {
			c.State.Set("webhook", "https://hooks.example.test/1")
			if flaky.Add(1) == 1 {
				a.Errorf("webhook not created yet")
			}
		}},
		{Name: "assign", DependsOn: []string{"prepare"}, Run: func(c *Context, a *retry.Attempt) {
			url, ok := Value[string](c, "webhook")
			require.True(a, ok)
			assert.Equal(a, "https://hooks.example.test/1", url)
		}},
		{Name: "broken", Run: fail},
		{Name: "afterBroken", DependsOn: []string{"broken"}, Run: pass},
		{Name: "inherits", MaxRetryCount: retry.Inherit, Run: fail},
		{Name: "off", Disabled: true, Run: pass},
	}}

	report, err := NewRunner(env).Run(context.Background(), []*Class{class})
	require.NoError(t, err)
	res := byName(report)

	assert.Equal(t, results.StatusPassed, res["WebHooks/prepare"].Status)
	assert.Equal(t, 2, res["WebHooks/prepare"].Attempts)
	assert.Equal(t, results.StatusPassed, res["WebHooks/assign"].Status)
	assert.Equal(t, results.StatusFailed, res["WebHooks/broken"].Status)
	assert.Equal(t, 1, res["WebHooks/broken"].Attempts)
	require.Len(t, res["WebHooks/broken"].Errors, 1)
	assert.Contains(t, res["WebHooks/broken"].Errors[0], "boom")
	assert.Equal(t, results.StatusSkipped, res["WebHooks/afterBroken"].Status)
	assert.Contains(t, res["WebHooks/afterBroken"].SkipReason, "broken")
	assert.Equal(t, 3, res["WebHooks/inherits"].Attempts)
	assert.Equal(t, results.StatusSkipped, res["WebHooks/off"].Status)

	assert.Equal(t, 2, report.Passed())
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, 2, report.Skipped())
	assert.False(t, report.OK())
	assert.Len(t, report.Retried(), 2)
	assert.Equal(t, env.RunID, report.RunID)

	require.NoError(t, env.Results.Close())
	types := sink.types()
	assert.Equal(t, results.EventRunStarted, types[0])
	assert.Equal(t, results.EventRunFinished, types[len(types)-1])
	assert.Contains(t, types, results.EventAttemptFailed)
	for _, e := range sink.events {
		assert.Equal(t, env.RunID, e.RunID)
	}
}

func TestRunnerSetupFailureFailsClass(t *testing.T) {
	env, _ := newTestEnv(t)
	tornDown := false
	class := &Class{
		Name:      "Entitlements",
		Setup:     func(*Context) error { return assert.AnError },
		Teardown:  func(*Context) error { tornDown = true; return nil },
		Scenarios: []Scenario{{Name: "a", Run: pass}, {Name: "b", Run: pass}},
	}
	report, err := NewRunner(env).Run(context.Background(), []*Class{class})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed())
	assert.True(t, tornDown)
	assert.Contains(t, report.Results[0].Errors[0], "class setup failed")
}

func TestRunnerHookPanicsFailOnlyTheirClass(t *testing.T) {
	env, _ := newTestEnv(t)
	classes := []*Class{
		{
			Name:      "Reports",
			Setup:     func(*Context) error { panic("no tenant") },
			Scenarios: []Scenario{{Name: "pdf", Run: pass}},
		},
		{
			Name:      "Applications",
			Teardown:  func(*Context) error { panic("delete failed") },
			Scenarios: []Scenario{{Name: "create", Run: pass}},
		},
	}
	report, err := NewRunner(env, WithParallel(2)).Run(context.Background(), classes)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, results.StatusFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Errors[0], "panic in setup: no tenant")
	assert.Equal(t, results.StatusPassed, report.Results[1].Status)
}

type hookRecorder struct {
	cleanups []func()
	fatal    string
	logs     []string
}

func (h *hookRecorder) Helper() {}

func (h *hookRecorder) Cleanup(fn func()) {
	h.cleanups = append(h.cleanups, fn)
}

func (h *hookRecorder) Fatalf(format string, args ...any) {
	h.fatal = fmt.Sprintf(format, args...)
}

func (h *hookRecorder) Logf(format string, args ...any) {
	h.logs = append(h.logs, fmt.Sprintf(format, args...))
}

func TestStartClassTearsDownAfterFailedSetup(t *testing.T) {
	env := NewEnv(config.Config{}, system.NewTestLogger())
	tornDown := false
	rec := &hookRecorder{}
	startClass(context.Background(), rec, env, &Class{
		Name:     "Entitlements",
		Setup:    func(*Context) error { panic("tenant form missing") },
		Teardown: func(*Context) error { tornDown = true; return nil },
	}, newState())

	assert.Equal(t, "class setup failed: panic in setup: tenant form missing", rec.fatal)
	require.Len(t, rec.cleanups, 1)
	rec.cleanups[0]()
	assert.True(t, tornDown)
}

func TestRunnerParallelClasses(t *testing.T) {
	env, _ := newTestEnv(t)
	var running, peak atomic.Int32
	slow := func(*Context, *retry.Attempt) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		running.Add(-1)
	}
	classes := []*Class{
		{Name: "A", Scenarios: []Scenario{{Name: "x", Run: slow}}},
		{Name: "B", Scenarios: []Scenario{{Name: "x", Run: slow}}},
		{Name: "C", Scenarios: []Scenario{{Name: "x", Run: slow}}},
	}
	report, err := NewRunner(env, WithParallel(2)).Run(context.Background(), classes)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Passed())
	assert.Equal(t, int32(2), peak.Load())
	// results keep class order
	assert.Equal(t, []string{"A", "B", "C"}, []string{report.Results[0].Class, report.Results[1].Class, report.Results[2].Class})
}

func TestRunnerRejectsCycles(t *testing.T) {
	env, _ := newTestEnv(t)
	_, err := NewRunner(env).Run(context.Background(), []*Class{{Name: "C", Scenarios: []Scenario{{Name: "a", DependsOn: []string{"a"}}}}})
	require.Error(t, err)
}

func TestRunnerCancelledContext(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := NewRunner(env).Run(ctx, []*Class{{Name: "C", Scenarios: []Scenario{{Name: "a", Run: pass}}}})
	require.Error(t, err)
	assert.Equal(t, 1, report.Skipped())
}

func TestRunT(t *testing.T) {
	env := NewEnv(config.Config{}, system.NewTestLogger())
	var order []string
	RunT(t, env, &Class{
		Name: "Applications",
		Setup: func(c *Context) error {
			c.State.Set("tenant", "AcmeCorp")
			return nil
		},
		Scenarios: []Scenario{
			{Name: "delete", DependsOn: []string{"create"}, Run: func(c *Context, a *retry.Attempt) {
				order = append(order, c.Scenario)
			}},
			{Name: "create", Run: func(c *Context, a *retry.Attempt) {
				tenant, _ := Value[string](c, "tenant")
				assert.Equal(a, "AcmeCorp", tenant)
				order = append(order, c.Scenario)
			}},
			{Name: "off", Disabled: true, Run: pass},
		},
	})
	assert.Equal(t, []string{"create", "delete"}, order)
}
