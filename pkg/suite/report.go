package suite

import (
	"time"

	"github.com/fodqa/fod-regression/pkg/results"
)

// ScenarioResult is the final outcome of one scenario.
type ScenarioResult struct {
	Class       string         `json:"class"`
	Scenario    string         `json:"scenario"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	BacklogItem string         `json:"backlogItem,omitempty"`
	Groups      []string       `json:"groups,omitempty"`
	Status      results.Status `json:"status"`
	Attempts    int            `json:"attempts"`
	Duration    time.Duration  `json:"duration"`
	Errors      []string       `json:"errors,omitempty"`
	SkipReason  string         `json:"skipReason,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	RunID    string           `json:"runId"`
	Started  time.Time        `json:"started"`
	Finished time.Time        `json:"finished"`
	Results  []ScenarioResult `json:"results"`
}

func (r *Report) count(s results.Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Passed() int  { return r.count(results.StatusPassed) }
func (r *Report) Failed() int  { return r.count(results.StatusFailed) }
func (r *Report) Skipped() int { return r.count(results.StatusSkipped) }

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// OK reports whether no scenario failed.
func (r *Report) OK() bool { return r.Failed() == 0 }

// Retried returns the results that needed more than one attempt.
func (r *Report) Retried() []ScenarioResult {
	var out []ScenarioResult
	for _, res := range r.Results {
		if res.Attempts > 1 {
			out = append(out, res)
		}
	}
	return out
}
