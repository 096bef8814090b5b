/*
SPDX-FileCopyrightText: 2026 Deutsche Telekom AG

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/fodtest/output"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

func testRegistry(t *testing.T, failing bool) *suite.Registry {
	t.Helper()
	r := suite.NewRegistry()
	r.MustRegister(&suite.Class{Name: "Applications", Scenarios: []suite.Scenario{
		{Name: "create", Groups: []string{"regression"}, Owner: "qa-team", Run: func(*suite.Context, *retry.Attempt) {}},
		{Name: "delete", Groups: []string{"regression"}, DependsOn: []string{"create"}, MaxRetryCount: retry.Inherit, Run: func(_ *suite.Context, a *retry.Attempt) {
			if failing {
				a.Errorf("application still listed")
			}
		}},
	}})
	r.MustRegister(&suite.Class{Name: "SBOM", Scenarios: []suite.Scenario{
		{Name: "download", Groups: []string{"nightly"}, Run: func(*suite.Context, *retry.Attempt) {}},
	}})
	return r
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fodtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, reg *suite.Registry, configPath string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := NewRootCommand(Config{ConfigPath: configPath, OutputWriter: buf, Registry: reg})
	root.SetOut(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

const baseConfig = `
environment:
  uiURL: https://ams.example.test
credentials:
  tenantCode: ACME
  tenantUser: jdoe
  tenantPassword: s3cret
results:
  log: false
`

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, nil, "/tmp/nonexistent-fodtest.yaml", "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
}

func TestCompletionOfScenarioPatterns(t *testing.T) {
	out, err := execute(t, testRegistry(t, false), "/tmp/nonexistent-fodtest.yaml", cobra.ShellCompRequestCmd, "run", "--run", "App")
	require.NoError(t, err)
	assert.Contains(t, out, "Applications\n")
	assert.Contains(t, out, "Applications/create\n")
	assert.NotContains(t, out, "SBOM")
}

func TestCompletionOfGroups(t *testing.T) {
	out, err := execute(t, testRegistry(t, false), "/tmp/nonexistent-fodtest.yaml", cobra.ShellCompRequestCmd, "list", "--groups", "")
	require.NoError(t, err)
	assert.Contains(t, out, "nightly\n")
	assert.Contains(t, out, "regression\n")
}

func TestCompletionUnsupportedShell(t *testing.T) {
	_, err := execute(t, nil, "/tmp/nonexistent-fodtest.yaml", "completion", "tcsh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shell")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, testRegistry(t, false), writeConfig(t, baseConfig), "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestListCommand(t *testing.T) {
	cfg := writeConfig(t, baseConfig)
	out, err := execute(t, testRegistry(t, false), cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CLASS")
	assert.Contains(t, out, "Applications")
	assert.Contains(t, out, "qa-team")

	out, err = execute(t, testRegistry(t, false), cfg, "list", "--groups", "nightly", "-o", "json")
	require.NoError(t, err)
	var rows []output.ScenarioInfo
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "SBOM", rows[0].Class)

	out, err = execute(t, testRegistry(t, false), cfg, "list", "--group-names")
	require.NoError(t, err)
	assert.Equal(t, "nightly\nregression\n", out)
}

func TestRunCommandPasses(t *testing.T) {
	report := filepath.Join(t.TempDir(), "out", "report.md")
	out, err := execute(t, testRegistry(t, false), writeConfig(t, baseConfig),
		"run", "--groups", "regression", "--report", report)
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")
	assert.Contains(t, out, "2 passed, 0 failed, 0 skipped")
	assert.NotContains(t, out, "download")

	raw, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "## Applications")
}

func TestRunCommandFails(t *testing.T) {
	out, err := execute(t, testRegistry(t, true), writeConfig(t, baseConfig),
		"run", "--run", "Applications/*", "--retries", "1", "-o", "json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScenariosFailed))

	var rep suite.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.Len(t, rep.Results, 2)
	assert.Equal(t, 2, rep.Results[1].Attempts)
}

func TestRunCommandNoMatch(t *testing.T) {
	_, err := execute(t, testRegistry(t, false), writeConfig(t, baseConfig), "run", "--run", "Nothing*")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scenarios match")
}

func TestConfigInitAndView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "fodtest.yaml")
	out, err := execute(t, nil, path, "config", "init", "--ui-url", "https://ams.example.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized config")
	_, err = execute(t, nil, path, "config", "init")
	require.Error(t, err)

	_, err = execute(t, nil, path, "config", "validate")
	require.NoError(t, err)

	out, err = execute(t, nil, writeConfig(t, baseConfig), "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "tenantCode: ACME")
	assert.NotContains(t, out, "s3cret")
}

func TestConfigValidateFails(t *testing.T) {
	_, err := execute(t, nil, writeConfig(t, "runner:\n  parallel: 2\n"), "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment.uiURL is required")
}

func TestTokenCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, `ACME\jdoe`, r.PostForm.Get("username"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"opaque-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	cfg := writeConfig(t, strings.Replace(baseConfig, "uiURL: https://ams.example.test", "uiURL: https://ams.example.test\n  apiURL: "+srv.URL, 1))
	out, err := execute(t, nil, cfg, "token", "--raw")
	require.NoError(t, err)
	assert.Equal(t, "opaque-token\n", out)
}

func TestVerifyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.csv")
	require.NoError(t, os.WriteFile(path, []byte("Issue ID,Severity\n1,Critical\n2,High\n"), 0o600))
	cfg := writeConfig(t, baseConfig)

	out, err := execute(t, nil, cfg, "verify", "csv", path, "--columns", "Severity", "--min-rows", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Issue ID, Severity")

	_, err = execute(t, nil, cfg, "verify", "csv", path, "--columns", "Category,Severity")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: Category")

	_, err = execute(t, nil, cfg, "verify", "csv", path, "--min-rows", "5")
	require.Error(t, err)
}

func TestVerifyZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("export/issues.csv")
	require.NoError(t, err)
	_, _ = w.Write([]byte("a,b\n"))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	cfg := writeConfig(t, baseConfig)

	out, err := execute(t, nil, cfg, "verify", "zip", path, "--expect", "issues.csv")
	require.NoError(t, err)
	assert.Equal(t, "export/issues.csv", strings.TrimSpace(out))

	_, err = execute(t, nil, cfg, "verify", "zip", path, "--expect", "report.pdf")
	require.Error(t, err)
}
