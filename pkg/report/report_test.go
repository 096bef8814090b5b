package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/suite"
)

func sampleReport() *suite.Report {
	started := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &suite.Report{
		RunID:    "run-42",
		Started:  started,
		Finished: started.Add(95 * time.Second),
		Results: []suite.ScenarioResult{
			{Class: "WebHooks", Scenario: "prepare", Status: results.StatusPassed, Attempts: 1, Duration: 1500 * time.Millisecond, BacklogItem: "1234"},
			{Class: "WebHooks", Scenario: "assign", Status: results.StatusFailed, Attempts: 3, Duration: 40 * time.Second, Errors: []string{"no delivery | timeout", "<b>bad</b>"}},
			{Class: "SBOM", Scenario: "import", Status: results.StatusSkipped, SkipReason: "depends on failed scenario prepare"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"html": FormatHTML, "HTM": FormatHTML, "md": FormatMarkdown, "markdown": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	require.Error(t, err)

	f, err := FormatFromPath("/tmp/out/report.md")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
	_, err = FormatFromPath("report")
	require.Error(t, err)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatHTML, WithTitle("Nightly")))
	out := buf.String()

	assert.Contains(t, out, "<title>Nightly</title>")
	assert.Contains(t, out, "<code>run-42</code>")
	assert.Contains(t, out, "2026-03-02 10:00:00 UTC")
	assert.Contains(t, out, "<td>1</td><td>1</td><td>1</td>")
	assert.Contains(t, out, "<h2>WebHooks</h2>")
	assert.Contains(t, out, "<h2>SBOM</h2>")
	assert.Contains(t, out, `<tr class="failed"><td>assign</td><td class="status">FAILED</td><td>3</td>`)
	assert.Contains(t, out, "<td>1234</td>")
	assert.Contains(t, out, "depends on failed scenario prepare")
	// errors are escaped
	assert.Contains(t, out, "&lt;b&gt;bad&lt;/b&gt;")
	assert.NotContains(t, out, "<b>bad</b>")
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatMarkdown))
	out := buf.String()

	assert.Contains(t, out, "# Regression run run-42")
	assert.Contains(t, out, "| 1 | 1 | 1 |")
	assert.Contains(t, out, "## WebHooks")
	assert.Contains(t, out, "| prepare | PASSED | 1 |")
	assert.Contains(t, out, `no delivery \| timeout`)
	assert.Contains(t, out, "| import | SKIPPED | 0 |")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var decoded suite.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded.RunID)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, results.StatusFailed, decoded.Results[1].Status)
}

func TestRenderUnknownFormat(t *testing.T) {
	require.Error(t, Render(&bytes.Buffer{}, sampleReport(), Format("pdf")))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.html")
	require.NoError(t, WriteFile(path, sampleReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<h2>WebHooks</h2>")

	require.Error(t, WriteFile(filepath.Join(dir, "report.txt"), sampleReport()))
}
