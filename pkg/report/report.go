// Package report renders the outcome of a regression run as HTML, Markdown or
// JSON.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/fodqa/fod-regression/pkg/suite"
)

type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

var (
	//go:embed templates/report.html.tmpl
	htmlTemplateRaw string
	//go:embed templates/report.md.tmpl
	markdownTemplateRaw string

	htmlTemplate     = htmltemplate.Must(htmltemplate.New("report.html").Funcs(sprig.HtmlFuncMap()).Parse(htmlTemplateRaw))
	markdownTemplate = texttemplate.Must(texttemplate.New("report.md").Funcs(sprig.TxtFuncMap()).Parse(markdownTemplateRaw))
)

// ParseFormat accepts the format names and the usual aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

type options struct {
	title string
}

type Option func(*options)

// WithTitle sets the heading of HTML and Markdown reports.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

type row struct {
	Scenario    string
	Status      string
	Attempts    int
	Duration    string
	BacklogItem string
	Owner       string
	Errors      []string
	SkipReason  string
}

type class struct {
	Name string
	Rows []row
}

// durations are carried as strings; sprig's durationRound parses them
type view struct {
	Title    string
	RunID    string
	Started  time.Time
	Duration string
	Passed   int
	Failed   int
	Skipped  int
	Classes  []class
}

func newView(r *suite.Report, o options) view {
	v := view{
		Title:    o.title,
		RunID:    r.RunID,
		Started:  r.Started,
		Duration: r.Duration().String(),
		Passed:   r.Passed(),
		Failed:   r.Failed(),
		Skipped:  r.Skipped(),
	}
	if v.Title == "" {
		v.Title = "Regression run " + r.RunID
	}
	index := map[string]int{}
	for _, res := range r.Results {
		i, ok := index[res.Class]
		if !ok {
			i = len(v.Classes)
			index[res.Class] = i
			v.Classes = append(v.Classes, class{Name: res.Class})
		}
		v.Classes[i].Rows = append(v.Classes[i].Rows, row{
			Scenario:    res.Scenario,
			Status:      string(res.Status),
			Attempts:    res.Attempts,
			Duration:    res.Duration.String(),
			BacklogItem: res.BacklogItem,
			Owner:       res.Owner,
			Errors:      res.Errors,
			SkipReason:  res.SkipReason,
		})
	}
	return v
}

// Render writes r to w in format.
func Render(w io.Writer, r *suite.Report, format Format, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	switch format {
	case FormatHTML:
		return htmlTemplate.Execute(w, newView(r, o))
	case FormatMarkdown:
		return markdownTemplate.Execute(w, newView(r, o))
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteFile renders r into path, choosing the format from its extension.
func WriteFile(path string, r *suite.Report, opts ...Option) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := Render(f, r, format, opts...); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return f.Close()
}
