package suite

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/fodqa/fod-regression/pkg/utils"
)

// Registry holds every class a binary knows about.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: map[string]*Class{}}
}

// DefaultRegistry is filled by the init functions of scenario packages.
var DefaultRegistry = NewRegistry()

// Register adds class. Names must be unique and the class must order cleanly.
func (r *Registry) Register(class *Class) error {
	if class.Name == "" {
		return fmt.Errorf("class name is required")
	}
	if _, err := orderScenarios(class); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.classes[class.Name]; ok {
		return fmt.Errorf("class %s registered twice", class.Name)
	}
	r.classes[class.Name] = class
	return nil
}

// MustRegister is Register for init functions.
func (r *Registry) MustRegister(class *Class) {
	if err := r.Register(class); err != nil {
		panic(err)
	}
}

// Classes returns the registered classes sorted by name.
func (r *Registry) Classes() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := maps.Keys(r.classes)
	slices.Sort(names)
	out := make([]*Class, len(names))
	for i, n := range names {
		out[i] = r.classes[n]
	}
	return out
}

// Groups returns every group used by a registered scenario, sorted.
func (r *Registry) Groups() []string {
	seen := map[string]struct{}{}
	for _, c := range r.Classes() {
		for _, s := range c.Scenarios {
			for _, g := range s.Groups {
				seen[g] = struct{}{}
			}
		}
	}
	groups := maps.Keys(seen)
	sort.Strings(groups)
	return groups
}

// Filter selects scenarios. Empty fields select everything.
type Filter struct {
	// Groups keeps scenarios in at least one of the groups. Entries may be
	// glob patterns ("webhook-*").
	Groups []string
	// Names are glob patterns over "Class", "scenario" or "Class/scenario".
	Names []string
}

func (f Filter) matches(class string, s Scenario) bool {
	if len(f.Groups) > 0 && !slices.ContainsFunc(s.Groups, func(g string) bool {
		return utils.GlobMatchAny(f.Groups, g)
	}) {
		return false
	}
	return utils.MatchAnyScenario(f.Names, class, s.Name)
}

// Select returns copies of the classes holding only the scenarios f selects,
// plus whatever they depend on. Classes left empty are omitted.
func (r *Registry) Select(f Filter) []*Class {
	var out []*Class
	for _, c := range r.Classes() {
		if sel := selectScenarios(c, f); sel != nil {
			out = append(out, sel)
		}
	}
	return out
}

func selectScenarios(c *Class, f Filter) *Class {
	byName := make(map[string]Scenario, len(c.Scenarios))
	for _, s := range c.Scenarios {
		byName[s.Name] = s
	}
	keep := map[string]bool{}
	var include func(name string)
	include = func(name string) {
		if keep[name] {
			return
		}
		keep[name] = true
		for _, dep := range byName[name].DependsOn {
			include(dep)
		}
	}
	for _, s := range c.Scenarios {
		if f.matches(c.Name, s) {
			include(s.Name)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	cp := *c
	cp.Scenarios = nil
	for _, s := range c.Scenarios {
		if keep[s.Name] {
			cp.Scenarios = append(cp.Scenarios, s)
		}
	}
	return &cp
}
