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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const keyApplication = "application"

func applicationsClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "Applications",
		Scenarios: []suite.Scenario{
			{
				Name:          "createApplicationTest",
				Description:   "Tenant user creates a web application and its first release",
				BacklogItem:   "301002",
				Groups:        []string{groupRegression, groupSmoke},
				MaxRetryCount: 2,
				Run:           createApplicationTest,
			},
			{
				Name:          "createMicroserviceApplicationTest",
				Description:   "Tenant user creates an application whose release belongs to a microservice",
				BacklogItem:   "301002",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					defaultLogin(f, a)
					app := dto.NewMicroserviceApplication()
					createApplications(f, a, app)
					nav, err := f.Actions.LogIn.DefaultTenantUserLogIn()
					require.NoError(a, err)
					list, err := nav.OpenApplications()
					require.NoError(a, err)
					found, err := list.HasApplication(app.ApplicationName)
					require.NoError(a, err)
					assert.True(a, found, "application %s is listed", app.ApplicationName)
				},
			},
			{
				Name:          "deleteApplicationTest",
				Description:   "Deleting an application removes it from the applications list",
				BacklogItem:   "301004",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				DependsOn:     []string{"createApplicationTest"},
				Run:           deleteApplicationTest,
			},
		},
	})
}

func createApplicationTest(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	defaultLogin(f, a)

	app := dto.NewApplication()
	_, err := f.Actions.Applications.CreateApplication(app)
	require.NoError(a, err)
	require.Positive(a, app.ReleaseID, "release id")
	c.State.Set(keyApplication, app)

	api, err := f.DefaultAPI(c, dto.ScopeViewApps)
	require.NoError(a, err)
	release, err := api.Releases().Get(c, app.ReleaseID)
	require.NoError(a, err)
	assert.Equal(a, app.ReleaseName, release.ReleaseName)
	assert.Equal(a, app.ApplicationName, release.ApplicationName)

	if f.Config.Database.Driver == "" {
		return
	}
	db, err := f.Lookup()
	require.NoError(a, err)
	tenantID, err := db.TenantIDByCode(c, f.Config.Credentials.TenantCode)
	require.NoError(a, err)
	appID, err := db.ApplicationIDByName(c, tenantID, app.ApplicationName)
	require.NoError(a, err)
	assert.Equal(a, release.ApplicationID, appID, "application id in the product database")
}

func deleteApplicationTest(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	app := prepared[*dto.Application](c, a, keyApplication)

	defaultLogin(f, a)
	require.NoError(a, f.Actions.Applications.DeleteApplication(app))

	nav, err := f.Actions.LogIn.DefaultTenantUserLogIn()
	require.NoError(a, err)
	list, err := nav.OpenApplications()
	require.NoError(a, err)
	found, err := list.HasApplication(app.ApplicationName)
	require.NoError(a, err)
	assert.False(a, found, "application %s is still listed", app.ApplicationName)
}
