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
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/fodapi"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const keyTokenApp = "tokenApp"

// scopeCallTimeout bounds waiting for the API to accept a freshly created token.
const scopeCallTimeout = time.Minute

// scopeCheck is one call a token with a single scope must be allowed to make.
type scopeCheck struct {
	scenario string
	scope    dto.Scope
	call     func(c *suite.Context, a *retry.Attempt, f *helpers.Fixture, api *fodapi.Client, app *dto.Application)
}

var scopeChecks = []scopeCheck{
	{"startScansScopeTest", dto.ScopeStartScans, startDynamicScanWithToken},
	{"manageAppsScopeTest", dto.ScopeManageApps, createApplicationWithToken},
	{"viewAppsScopeTest", dto.ScopeViewApps, expectOK("api/v3/applications")},
	{"viewIssuesScopeTest", dto.ScopeViewIssues, func(c *suite.Context, a *retry.Attempt, _ *helpers.Fixture, api *fodapi.Client, app *dto.Application) {
		_, err := api.Vulnerabilities().ByRelease(c, app.ReleaseID, fodapi.ListOptions{Limit: 10})
		require.NoError(a, err)
	}},
	{"viewUsersScopeTest", dto.ScopeViewUsers, expectOK("api/v3/users")},
	{"viewTenantDataScopeTest", dto.ScopeViewTenantData, func(c *suite.Context, a *retry.Attempt, _ *helpers.Fixture, api *fodapi.Client, _ *dto.Application) {
		ents, err := api.Tenants().Entitlements(c)
		require.NoError(a, err)
		assert.NotEmpty(a, ents.TenantEntitlements, "tenant entitlements")
	}},
	{"apiTenantScopeTest", dto.ScopeAPITenant, expectOK("api/v3/applications")},
}

func personalAccessTokenClass() *suite.Class {
	class := &suite.Class{
		Name: "PersonalAccessToken",
		Scenarios: []suite.Scenario{{
			Name:          "prepareTestData",
			Description:   "Create the application the scope checks work on",
			BacklogItem:   "605003",
			Groups:        []string{groupRegression},
			MaxRetryCount: 3,
			Run: func(c *suite.Context, a *retry.Attempt) {
				f := fixture(c, a)
				defaultLogin(f, a)
				app := dto.NewApplication()
				createApplications(f, a, app)
				c.State.Set(keyTokenApp, app)
			},
		}},
	}
	for _, check := range scopeChecks {
		check := check
		class.Scenarios = append(class.Scenarios, suite.Scenario{
			Name:          check.scenario,
			Description:   "Token with scope " + string(check.scope) + " is accepted by the API",
			BacklogItem:   "605003",
			Groups:        []string{groupRegression},
			MaxRetryCount: 3,
			DependsOn:     []string{"prepareTestData"},
			Run: func(c *suite.Context, a *retry.Attempt) {
				f := fixture(c, a)
				app := prepared[*dto.Application](c, a, keyTokenApp)
				api := tokenClient(c, a, f, check.scope)
				check.call(c, a, f, api, app)
			},
		})
	}
	class.Scenarios = append(class.Scenarios, suite.Scenario{
		Name:          "scopeNotGrantedTest",
		Description:   "Token with view-apps only cannot create applications",
		BacklogItem:   "605003",
		Groups:        []string{groupRegression},
		MaxRetryCount: 1,
		DependsOn:     []string{"prepareTestData"},
		Run: func(c *suite.Context, a *retry.Attempt) {
			f := fixture(c, a)
			api := tokenClient(c, a, f, dto.ScopeViewApps)
			req := fodapi.NewCreateApplicationRequest(dto.NewApplication(), ownerID(c, a, f), nil)
			_, err := api.Applications().Create(c, req)
			require.Error(a, err, "create must be rejected")
			assert.Equal(a, http.StatusForbidden, fodapi.StatusCode(err))
		},
	})
	return withFixture(class)
}

// tokenClient creates a personal access token with scope for the default
// tenant user and returns an API client authenticated with it. The token is
// deleted when the class ends.
func tokenClient(c *suite.Context, a *retry.Attempt, f *helpers.Fixture, scope dto.Scope) *fodapi.Client {
	defaultLogin(f, a)
	pat := dto.NewPersonalAccessToken()
	pat.Scopes = []dto.Scope{scope}
	secret, err := f.Actions.AccessTokens.CreateToken(pat)
	require.NoError(a, err)
	require.NotEmpty(a, secret, "token secret is shown once after saving")
	f.Cleanup.Add("token "+pat.Name, func(context.Context) error {
		if _, err := f.Actions.LogIn.DefaultTenantUserLogIn(); err != nil {
			return err
		}
		return f.Actions.AccessTokens.DeleteToken(pat.Name)
	})

	creds := f.Config.Credentials
	api, err := f.API(c, fodapi.UserPayload{UserName: creds.TenantUser, Password: secret}, creds.TenantCode, scope)
	require.NoError(a, err, "authenticate with the personal access token")
	return api
}

func expectOK(endpoint string) func(*suite.Context, *retry.Attempt, *helpers.Fixture, *fodapi.Client, *dto.Application) {
	return func(c *suite.Context, a *retry.Attempt, f *helpers.Fixture, api *fodapi.Client, _ *dto.Application) {
		resp, err := api.WaitForStatus(c, http.StatusOK, scopeCallTimeout, f.Config.PollInterval(), func(ctx context.Context) (*fodapi.Response, error) {
			return api.Do(ctx, http.MethodGet, endpoint, nil)
		})
		require.NoErrorf(a, err, "GET %s", endpoint)
		assert.True(a, resp.OK())
	}
}

func startDynamicScanWithToken(c *suite.Context, a *retry.Attempt, f *helpers.Fixture, api *fodapi.Client, app *dto.Application) {
	assessmentTypeID, err := api.AssessmentTypes().AssessmentIDByScanTypeAndName(c, app.ReleaseID, dto.ScanTypeDynamic, "AUTO-DYNAMIC")
	require.NoError(a, err)
	tenant, err := f.DefaultAPI(c)
	require.NoError(a, err)
	entitlementID, err := tenant.Tenants().FirstEntitlementID(c)
	require.NoError(a, err)

	setup := fodapi.DynamicScanSetup{
		AssessmentTypeID:         assessmentTypeID,
		EntitlementID:            entitlementID,
		EntitlementFrequencyType: "Subscription",
		DynamicSiteURL:           "http://zero.webappsecurity.com",
		TimeZone:                 "UTC",
		EnvironmentFacingType:    string(dto.FacingExternal),
		RepeatScheduleType:       "NoRepeat",
	}
	require.NoError(a, api.DynamicScans().SaveSetup(c, app.ReleaseID, setup))
	started, err := api.DynamicScans().Start(c, app.ReleaseID, fodapi.StartDynamicScanRequest{
		StartDate:                time.Now().UTC().Format("2006-01-02T15:04:05"),
		AssessmentTypeID:         assessmentTypeID,
		EntitlementID:            entitlementID,
		EntitlementFrequencyType: "Subscription",
	})
	require.NoError(a, err)
	assert.Positive(a, started.ScanID, "scan id")
}

func createApplicationWithToken(c *suite.Context, a *retry.Attempt, f *helpers.Fixture, api *fodapi.Client, _ *dto.Application) {
	app := dto.NewApplication()
	created, err := api.Applications().Create(c, fodapi.NewCreateApplicationRequest(app, ownerID(c, a, f), nil))
	require.NoError(a, err)
	require.Positive(a, created.ApplicationID, "application id")
	f.Cleanup.Add("application "+app.ApplicationName, func(ctx context.Context) error {
		admin, err := f.DefaultAPI(ctx, dto.ScopeManageApps)
		if err != nil {
			return err
		}
		return admin.Applications().Delete(ctx, created.ApplicationID)
	})
}

// ownerID resolves the default tenant user's id, from the product database
// when one is configured and through the API otherwise.
func ownerID(c *suite.Context, a *retry.Attempt, f *helpers.Fixture) int {
	creds := f.Config.Credentials
	if f.Config.Database.Driver != "" {
		db, err := f.Lookup()
		require.NoError(a, err)
		tenantID, err := db.TenantIDByCode(c, creds.TenantCode)
		require.NoError(a, err)
		id, err := db.UserIDByUserName(c, tenantID, creds.TenantUser)
		require.NoError(a, err)
		return id
	}
	api, err := f.DefaultAPI(c, dto.ScopeViewUsers)
	require.NoError(a, err)
	id, err := api.Users().IDByUserName(c, creds.TenantUser)
	require.NoError(a, err)
	return id
}
