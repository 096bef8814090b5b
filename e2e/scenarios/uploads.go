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
	"context"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const (
	keyUploadApp = "uploadApp"
	// invalidExtensionMessage is shown by the upload popup for unsupported files.
	invalidExtensionMessage = "Invalid file extension"
)

func staticPayloadUploadValidationClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "StaticPayloadUploadValidation",
		Scenarios: []suite.Scenario{
			{
				Name:          "prepareTestData",
				Description:   "Create the application whose release receives the payloads",
				BacklogItem:   "523012",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					defaultLogin(f, a)
					app := dto.NewApplication()
					createApplications(f, a, app)
					c.State.Set(keyUploadApp, app)
				},
			},
			{
				Name:          "invalidExtensionTest",
				Description:   "A static payload with an unsupported extension is rejected on upload",
				BacklogItem:   "523012",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				DependsOn:     []string{"prepareTestData"},
				Run:           rejectInvalidExtension,
			},
			{
				Name:          "validPayloadTest",
				Description:   "A zipped Java payload starts a static scan, which is then canceled",
				BacklogItem:   "523012",
				Groups:        []string{groupNightly},
				MaxRetryCount: 1,
				DependsOn:     []string{"prepareTestData"},
				Run:           startValidPayload,
			},
		},
	})
}

func rejectInvalidExtension(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	app := prepared[*dto.Application](c, a, keyUploadApp)

	dir, err := os.MkdirTemp("", "fod-payload-")
	require.NoError(a, err)
	f.Cleanup.Add("payload dir "+dir, func(context.Context) error { return os.RemoveAll(dir) })
	path := filepath.Join(dir, "sources.txt")
	require.NoError(a, os.WriteFile(path, []byte("public class Main {}\n"), 0o600))

	scan := dto.NewStaticScan()
	scan.FileToUpload = path
	require.False(a, scan.HasAcceptedExtension(), "payload must have an unsupported extension")

	defaultLogin(f, a)
	msg, err := f.Actions.StaticScans.StartWithPayload(scan, app)
	require.NoError(a, err)
	assert.Contains(a, msg, invalidExtensionMessage)
}

func startValidPayload(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	app := prepared[*dto.Application](c, a, keyUploadApp)

	scan := dto.NewStaticScan()
	scan.FileToUpload = helpers.Payload(scan.FileToUpload)
	require.True(a, scan.HasAcceptedExtension())

	defaultLogin(f, a)
	status, err := f.Actions.StaticScans.CreateStaticScan(scan, app, dto.SetupStatusInProgress)
	require.NoError(a, err)
	assert.Equal(a, dto.SetupStatusInProgress, status)

	overview, err := f.Actions.Applications.OpenRelease(app)
	require.NoError(a, err)
	scans, err := overview.OpenScans()
	require.NoError(a, err)
	require.NoError(a, scans.CancelLatestScan())
}
