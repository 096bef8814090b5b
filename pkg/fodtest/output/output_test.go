package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fodqa/fod-regression/pkg/results"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "table": FormatTable, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("wide")
	require.Error(t, err)
}

func TestWriteObject(t *testing.T) {
	obj := map[string]int{"count": 42}

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, FormatJSON, obj))
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 42, decoded["count"])

	buf.Reset()
	require.NoError(t, WriteObject(&buf, FormatYAML, obj))
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 42, decoded["count"])

	require.Error(t, WriteObject(&buf, FormatTable, obj))
	require.Error(t, WriteObject(&buf, Format("xml"), obj))
}

func TestScenarioTable(t *testing.T) {
	rows := Scenarios([]*suite.Class{{Name: "WebHooks", Scenarios: []suite.Scenario{
		{Name: "prepare", Groups: []string{"regression", "webhooks"}},
		{Name: "assign", DependsOn: []string{"prepare"}, MaxRetryCount: retry.Inherit, Owner: "jdoe", Disabled: true},
	}}})
	require.Len(t, rows, 2)

	var buf bytes.Buffer
	WriteScenarioTable(&buf, rows)
	out := buf.String()
	assert.Contains(t, out, "regression,webhooks")
	assert.Contains(t, out, "assign (disabled)")
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "jdoe")
}

func TestReportTable(t *testing.T) {
	start := time.Now()
	rep := &suite.Report{RunID: "r1", Started: start, Finished: start.Add(3 * time.Second), Results: []suite.ScenarioResult{
		{Class: "SBOM", Scenario: "download", Status: results.StatusFailed, Attempts: 2, Errors: []string{"first", "Error: no file\nmore"}},
		{Class: "SBOM", Scenario: "import", Status: results.StatusSkipped, SkipReason: "depends on download"},
	}}
	var buf bytes.Buffer
	WriteReportTable(&buf, rep)
	out := buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "Error: no file")
	assert.NotContains(t, out, "more")
	assert.Contains(t, out, "depends on download")
	assert.Contains(t, out, "Run r1: 0 passed, 1 failed, 1 skipped in 3s")
}

func TestWriteKeyValues(t *testing.T) {
	var buf bytes.Buffer
	WriteKeyValues(&buf, [][2]string{{"File", "a.csv"}, {"Rows", "2"}})
	assert.Equal(t, "File:  a.csv\nRows:  2\n", buf.String())
}
