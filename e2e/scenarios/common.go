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
	"strings"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/fodapi"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
	"github.com/fodqa/fod-regression/pkg/waitutil"
)

// Groups scenarios are selected by.
const (
	groupRegression = "regression"
	groupNightly    = "nightly"
	groupSmoke      = "smoke"
	// groupDelivery needs a webhook receiver the product can reach.
	groupDelivery = "webhook-delivery"
)

const keyFixture = "fixture"

// withFixture opens a helpers.Fixture in the class setup and closes it in the
// teardown.
func withFixture(class *suite.Class) *suite.Class {
	class.Setup = func(c *suite.Context) error {
		f, err := helpers.NewFixture(c, c.Config(), c.Log())
		if err != nil {
			return err
		}
		c.State.Set(keyFixture, f)
		return nil
	}
	class.Teardown = func(c *suite.Context) error {
		f, ok := suite.Value[*helpers.Fixture](c, keyFixture)
		if !ok {
			return nil
		}
		return f.Close(c)
	}
	return class
}

func fixture(c *suite.Context, a *retry.Attempt) *helpers.Fixture {
	f, ok := suite.Value[*helpers.Fixture](c, keyFixture)
	require.True(a, ok, "class fixture is missing")
	return f
}

// prepared returns what an earlier scenario stored under key.
func prepared[T any](c *suite.Context, a *retry.Attempt, key string) T {
	v, ok := suite.Value[T](c, key)
	require.Truef(a, ok, "%s was not prepared by an earlier scenario", key)
	return v
}

// deleteAppOnCleanup removes app from the default tenant when the class ends.
func deleteAppOnCleanup(f *helpers.Fixture, app *dto.Application) {
	f.Cleanup.Add("application "+app.ApplicationName, func(context.Context) error {
		if _, err := f.Actions.LogIn.DefaultTenantUserLogIn(); err != nil {
			return err
		}
		return f.Actions.Applications.DeleteApplication(app)
	})
}

// tamLogin signs the configured TAM in to the default tenant.
func tamLogin(f *helpers.Fixture, a *retry.Attempt) {
	creds := f.Config.Credentials
	_, err := f.Actions.LogIn.TAMUserLogin(creds.TAMUser, creds.TAMPassword, creds.TenantCode)
	require.NoError(a, err, "TAM login")
}

func defaultLogin(f *helpers.Fixture, a *retry.Attempt) {
	_, err := f.Actions.LogIn.DefaultTenantUserLogIn()
	require.NoError(a, err, "tenant user login")
}

// createApplications creates apps in the default tenant and schedules their removal.
func createApplications(f *helpers.Fixture, a *retry.Attempt, apps ...*dto.Application) {
	require.NoError(a, f.Actions.Applications.CreateApplications(apps...))
	for _, app := range apps {
		require.NotZerof(a, app.ReleaseID, "release id of %s", app.ReleaseName)
		deleteAppOnCleanup(f, app)
	}
}

// scanCompleted is the analysis status of a finished scan.
const scanCompleted = "Completed"

// waitScanCompleted polls the scan until the API reports it completed.
func waitScanCompleted(c *suite.Context, a *retry.Attempt, api *fodapi.Client, releaseID, scanID int, timeout time.Duration) {
	status, err := waitutil.WaitFor(c, waitutil.Equals, scanCompleted, func() (string, error) {
		scan, err := api.Releases().Scan(c, releaseID, scanID)
		if err != nil {
			return "", err
		}
		c.Log().Debugw("Scan status", "scanId", scanID, "status", scan.AnalysisStatusType)
		return strings.TrimSpace(scan.AnalysisStatusType), nil
	}, timeout, true, waitutil.WithInterval(helpers.ScanPollInterval))
	require.NoErrorf(a, err, "scan %d of release %d ended as %q", scanID, releaseID, status)
}
