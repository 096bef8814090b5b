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
	"os"
	"regexp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/files"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const (
	keyReportApp = "reportApp"
	// staticFPR is an imported static scan with issues of every severity.
	staticFPR = "payloads/fod/static.java.fpr"
)

// issueCount strips the " (n)" count the issues page appends to group headers.
var issueCount = regexp.MustCompile(`\s*\(\d+\)$`)

func reportTemplatePDFClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "ReportTemplatePDF",
		Scenarios: []suite.Scenario{
			{
				Name:          "prepareTestData",
				Description:   "Create an application and import a static scan into its release",
				BacklogItem:   "688009",
				Groups:        []string{groupRegression},
				MaxRetryCount: 3,
				Run:           prepareReportRelease,
			},
			{
				Name:          "staticIssueDetailReportTest",
				Description:   "Static Issue Detail PDF lists the High issues shown on the issues page",
				BacklogItem:   "688009",
				Groups:        []string{groupRegression},
				MaxRetryCount: 3,
				DependsOn:     []string{"prepareTestData"},
				Run:           staticIssueDetailReport,
			},
		},
	})
}

func prepareReportRelease(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	defaultLogin(f, a)
	app := dto.NewApplication()
	createApplications(f, a, app)

	api, err := f.DefaultAPI(c, dto.ScopeStartScans, dto.ScopeViewApps)
	require.NoError(a, err)
	fpr, err := os.Open(helpers.Payload(staticFPR))
	require.NoError(a, err)
	defer fpr.Close()
	imported, err := api.StaticScans().ImportScan(c, app.ReleaseID, fpr)
	require.NoError(a, err)
	c.Log().Infow("Static scan imported", "scanId", imported.ScanID, "release", app.ReleaseName)

	waitScanCompleted(c, a, api, app.ReleaseID, imported.ScanID, helpers.ImportTimeout)
	c.State.Set(keyReportApp, app)
}

func staticIssueDetailReport(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	app := prepared[*dto.Application](c, a, keyReportApp)

	defaultLogin(f, a)
	overview, err := f.Actions.Applications.OpenRelease(app)
	require.NoError(a, err)
	issues, err := overview.OpenIssues()
	require.NoError(a, err)
	require.NoError(a, issues.FilterBySeverity(dto.SeverityHigh))
	headers, err := issues.GroupHeaders()
	require.NoError(a, err)
	require.NotEmpty(a, headers, "High issue groups")

	path, err := f.Actions.Reports.CreateReportAndDownload(dto.NewReportFor(app, dto.ReportStaticIssueDetail))
	require.NoError(a, err)
	pdf, err := files.OpenPDF(path)
	require.NoError(a, err)
	require.NoError(a, pdf.Validate())
	pages, err := pdf.PageCount()
	require.NoError(a, err)
	assert.Positive(a, pages, "report pages")

	for _, want := range append([]string{"Issue Detail"}, headers...) {
		want = issueCount.ReplaceAllString(want, "")
		found, err := pdf.Contains(want)
		require.NoError(a, err)
		assert.Truef(a, found, "report does not mention %q", want)
	}
}
