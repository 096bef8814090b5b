package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fodqa/fod-regression/pkg/suite"
)

// ScenarioInfo is one registered scenario as listed by the CLI.
type ScenarioInfo struct {
	Class         string   `json:"class" yaml:"class"`
	Scenario      string   `json:"scenario" yaml:"scenario"`
	Groups        []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	DependsOn     []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	MaxRetryCount int      `json:"maxRetryCount" yaml:"maxRetryCount"`
	Owner         string   `json:"owner,omitempty" yaml:"owner,omitempty"`
	BacklogItem   string   `json:"backlogItem,omitempty" yaml:"backlogItem,omitempty"`
	Disabled      bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Scenarios flattens classes into list rows.
func Scenarios(classes []*suite.Class) []ScenarioInfo {
	var out []ScenarioInfo
	for _, c := range classes {
		for _, s := range c.Scenarios {
			out = append(out, ScenarioInfo{
				Class:         c.Name,
				Scenario:      s.Name,
				Groups:        s.Groups,
				DependsOn:     s.DependsOn,
				MaxRetryCount: s.MaxRetryCount,
				Owner:         s.Owner,
				BacklogItem:   s.BacklogItem,
				Disabled:      s.Disabled,
			})
		}
	}
	return out
}

func WriteScenarioTable(w io.Writer, rows []ScenarioInfo) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CLASS\tSCENARIO\tGROUPS\tDEPENDS_ON\tRETRIES\tOWNER")
	for _, r := range rows {
		name := r.Scenario
		if r.Disabled {
			name += " (disabled)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Class, name, join(r.Groups), join(r.DependsOn), retries(r.MaxRetryCount), dash(r.Owner))
	}
	_ = tw.Flush()
}

func WriteReportTable(w io.Writer, r *suite.Report) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CLASS\tSCENARIO\tSTATUS\tATTEMPTS\tDURATION\tDETAILS")
	for _, res := range r.Results {
		details := res.SkipReason
		if details == "" && len(res.Errors) > 0 {
			details = firstLine(res.Errors[len(res.Errors)-1])
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", res.Class, res.Scenario, strings.ToUpper(string(res.Status)), res.Attempts, res.Duration.Round(time.Millisecond), dash(details))
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "\nRun %s: %d passed, %d failed, %d skipped in %s\n", r.RunID, r.Passed(), r.Failed(), r.Skipped(), r.Duration().Round(time.Second))
}

// WriteKeyValues prints aligned "key: value" lines in the given order.
func WriteKeyValues(w io.Writer, pairs [][2]string) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, p := range pairs {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", p[0], p[1])
	}
	_ = tw.Flush()
}

func retries(n int) string {
	if n < 0 {
		return "default"
	}
	return fmt.Sprintf("%d", n)
}

func join(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
