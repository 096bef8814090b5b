package suite

import (
	"context"
	"testing"

	"github.com/fodqa/fod-regression/pkg/retry"
)

// RunT runs class under go test: one subtest per scenario, in dependency
// order. A scenario whose dependencies did not pass is skipped.
func RunT(t *testing.T, env *Env, class *Class) {
	t.Helper()
	plan, err := orderScenarios(class)
	if err != nil {
		t.Fatalf("%v", err)
	}
	runner := NewRunner(env)
	state := newState()
	ctx := context.Background()

	startClass(ctx, t, env, class, state)

	passed := map[string]bool{}
	for _, sc := range plan {
		sc := sc
		ok := false
		t.Run(sc.Name, func(t *testing.T) {
			if sc.Disabled {
				t.Skip("disabled")
			}
			if missing := unmetDependencies(sc, passed); len(missing) > 0 {
				t.Skipf("depends on %v which did not pass", missing)
			}
			if sc.Description != "" {
				t.Logf("%s", sc.Description)
			}
			retry.Run(t, runner.retriesFor(sc), func(a *retry.Attempt) {
				sc.Run(newContext(a.Context(), env, class.Name, sc.Name, a.Number(), state), a)
			}, retry.WithContext(ctx), retry.WithLogger(env.Log), retry.WithDelay(runner.retryDelay))
			ok = true
		})
		passed[sc.Name] = ok
	}
}

// hookT is the part of testing.T the class hooks need.
type hookT interface {
	Helper()
	Cleanup(func())
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// startClass runs Setup and registers Teardown. Teardown is registered first
// so a failed setup still removes what it created.
func startClass(ctx context.Context, t hookT, env *Env, class *Class, state *State) {
	t.Helper()
	if class.Teardown != nil {
		t.Cleanup(func() {
			if err := recoverHook("teardown", func() error {
				return class.Teardown(newContext(ctx, env, class.Name, "teardown", 0, state))
			}); err != nil {
				t.Logf("class teardown failed: %v", err)
			}
		})
	}
	if class.Setup != nil {
		if err := recoverHook("setup", func() error {
			return class.Setup(newContext(ctx, env, class.Name, "setup", 0, state))
		}); err != nil {
			t.Fatalf("class setup failed: %v", err)
		}
	}
}
