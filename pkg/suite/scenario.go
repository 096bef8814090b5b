package suite

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/system"
	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// Scenario is one test of a class.
type Scenario struct {
	Name        string
	Description string
	Owner       string
	// BacklogItem links the scenario to the tracker item it covers.
	BacklogItem string
	Groups      []string
	// MaxRetryCount is the number of re-runs after a failed attempt.
	// retry.Inherit applies the runner default.
	MaxRetryCount int
	// DependsOn names scenarios of the same class that must pass first.
	DependsOn []string
	// Disabled scenarios are reported as skipped.
	Disabled bool
	Run      func(*Context, *retry.Attempt)
}

// HasGroup reports whether the scenario belongs to group.
func (s Scenario) HasGroup(group string) bool {
	for _, g := range s.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Class is a set of scenarios sharing one State.
type Class struct {
	Name      string
	Scenarios []Scenario
	// Setup runs once before the first scenario. An error fails every
	// scenario of the class.
	Setup func(*Context) error
	// Teardown runs after the last scenario, even when scenarios failed.
	Teardown func(*Context) error
}

// Env is what every scenario of a run shares.
type Env struct {
	Config  config.Config
	Log     *zap.SugaredLogger
	RunID   string
	Results *results.Manager
}

// NewEnv returns an environment with a fresh run id. Results may be set
// afterwards to stream events.
func NewEnv(cfg config.Config, log *zap.SugaredLogger) *Env {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Env{Config: cfg, Log: log, RunID: uniquetag.RunID()}
}

func (e *Env) emit(ev *results.Event) {
	if e.Results == nil {
		return
	}
	ev.RunID = e.RunID
	e.Results.Emit(ev)
}

// State is the class-scoped store scenarios use to hand entities to the
// scenarios that depend on them.
type State struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

func newState() *State {
	return &State{values: map[string]interface{}{}}
}

func (s *State) Set(key string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

func (s *State) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Context is handed to scenario bodies and class hooks.
type Context struct {
	context.Context
	Env      *Env
	Class    string
	Scenario string
	State    *State
	log      *zap.SugaredLogger
}

func newContext(ctx context.Context, env *Env, class, scenario string, attempt int, state *State) *Context {
	return &Context{
		Context:  ctx,
		Env:      env,
		Class:    class,
		Scenario: scenario,
		State:    state,
		log:      env.Log.With(system.ScenarioFields(class, scenario, attempt)...),
	}
}

// Log is the run logger annotated with class, scenario and attempt.
func (c *Context) Log() *zap.SugaredLogger { return c.log }

func (c *Context) Config() config.Config { return c.Env.Config }

// Value reads key from the class state as T.
func Value[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.State.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
