/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package scenarios

import (
	"path/filepath"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/files"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

func dataExportClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "DataExport",
		Scenarios: []suite.Scenario{
			{
				Name:          "issuesExportColumnsTest",
				Description:   "Issues export CSV carries the issue columns",
				BacklogItem:   "816001",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				Run:           exportColumns(dto.ExportIssues),
			},
			{
				Name:          "scansExportColumnsTest",
				Description:   "Scans export CSV carries the scan columns",
				BacklogItem:   "816001",
				Groups:        []string{groupNightly},
				MaxRetryCount: 2,
				Run:           exportColumns(dto.ExportScans),
			},
			{
				Name:          "applicationsExportTest",
				Description:   "Applications export lists an application created for it",
				BacklogItem:   "816001",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				Run:           applicationsExport,
			},
		},
	})
}

// downloadExport runs exp and opens the CSV it produced. Exports arrive either
// as a bare CSV or zipped.
func downloadExport(a *retry.Attempt, run func(*dto.DataExport) (string, error), exp *dto.DataExport) *files.CSV {
	path, err := run(exp)
	require.NoError(a, err)
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		path, err = files.UnzipSingle(path, ".csv")
		require.NoError(a, err)
	}
	csv, err := files.OpenCSV(path)
	require.NoError(a, err)
	return csv
}

func exportColumns(template dto.DataExportTemplate) func(*suite.Context, *retry.Attempt) {
	return func(c *suite.Context, a *retry.Attempt) {
		f := fixture(c, a)
		defaultLogin(f, a)
		exp := dto.NewDataExportWithTemplate(template)
		csv := downloadExport(a, f.Actions.DataExports.CreateDataExportAndDownload, exp)
		assert.Subset(a, csv.Headers(), exp.Columns, "%s export columns", template)
	}
}

func applicationsExport(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	defaultLogin(f, a)
	app := dto.NewApplication()
	createApplications(f, a, app)

	exp := dto.NewDataExportWithTemplate(dto.ExportApplications)
	csv := downloadExport(a, f.Actions.DataExports.CreateDataExportAndDownload, exp)
	assert.Subset(a, csv.Headers(), exp.Columns)
	assert.Positive(a, csv.RowsCount(), "exported rows")
	names, err := csv.ColumnValues("Application Name")
	require.NoError(a, err)
	assert.Contains(a, names, app.ApplicationName)
}
