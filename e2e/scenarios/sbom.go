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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/files"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const (
	keySBOMApp = "sbomApp"
	// yarnPayload holds a yarn.lock whose transitive dependencies include qsRef.
	yarnPayload = "payloads/fod/yarn.zip"
	qsRef       = "pkg:npm/qs@6.7.0"
)

func sbomLockFileClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "SBOMLockFile",
		Scenarios: []suite.Scenario{
			{
				Name:          "prepareTestData",
				Description:   "Create the application the open source scan runs against",
				BacklogItem:   "784027",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					defaultLogin(f, a)
					app := dto.NewApplication()
					createApplications(f, a, app)
					c.State.Set(keySBOMApp, app)
				},
			},
			{
				Name:          "checkSBOMLockfileTest",
				Description:   "SBOM of a yarn lock file scan carries the transitive dependency graph",
				BacklogItem:   "784027",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				DependsOn:     []string{"prepareTestData"},
				Run:           checkSBOMLockfile,
			},
		},
	})
}

func checkSBOMLockfile(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	app := prepared[*dto.Application](c, a, keySBOMApp)

	api, err := f.DefaultAPI(c, dto.ScopeStartScans, dto.ScopeViewApps)
	require.NoError(a, err)
	payload, err := os.Open(helpers.Payload(yarnPayload))
	require.NoError(a, err)
	defer payload.Close()
	started, err := api.OpenSourceScans().StartScan(c, app.ReleaseID, payload)
	require.NoError(a, err)
	c.Log().Infow("Open source scan started", "scanId", started.ScanID, "release", app.ReleaseName)
	waitScanCompleted(c, a, api, app.ReleaseID, started.ScanID, helpers.ScanTimeout)

	raw, err := api.OpenSourceComponents().DownloadSBOM(c, started.ScanID)
	require.NoError(a, err)
	sbom, err := files.ParseSBOM(raw)
	require.NoError(a, err)
	assert.NotEmpty(a, sbom.Components(), "SBOM components")
	require.Truef(a, sbom.HasDependency(qsRef), "%s missing from the dependency graph", qsRef)
	assert.Positive(a, sbom.DependedOnBy(qsRef), "nothing depends on %s", qsRef)
}
