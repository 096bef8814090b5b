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
	"github.com/fodqa/fod-regression/pkg/pages"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
)

const (
	keyStaticApp  = "staticApp"
	keyDynamicApp = "dynamicApp"
	keyMobileApp  = "mobileApp"
	keyWebhooks   = "webhooks"
)

// webhooksCount is how many webhooks the class subscribes.
const webhooksCount = 5

func webHooksClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "WebHooks",
		Scenarios: []suite.Scenario{
			{
				Name:          "prepareTestData",
				Description:   "TAM creates static, dynamic and mobile applications and subscribes webhooks",
				BacklogItem:   "419019",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				Run:           prepareWebhooks,
			},
			{
				Name:          "assignReleasesTest",
				Description:   "Security lead assigns the static release to a webhook",
				BacklogItem:   "419019",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				DependsOn:     []string{"prepareTestData"},
				Run:           assignWebhookRelease,
			},
			{
				Name:          "scanStartedDeliveryTest",
				Description:   "Starting a scan of the assigned release delivers a Scan Started event",
				BacklogItem:   "419019",
				Groups:        []string{groupDelivery},
				MaxRetryCount: 1,
				DependsOn:     []string{"assignReleasesTest"},
				Run:           webhookScanStartedDelivery,
			},
		},
	})
}

func prepareWebhooks(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	tamLogin(f, a)

	static, dynamic, mobile := dto.NewApplication(), dto.NewApplication(), dto.NewMobileApplication()
	createApplications(f, a, static, dynamic, mobile)

	hooks := make([]*dto.Webhook, webhooksCount)
	for i := range hooks {
		hooks[i] = dto.NewWebhook()
	}
	// the first webhook points at the receiver when the product can reach it
	if c.Config().Receiver.PublicURL != "" {
		srv, err := f.Receiver()
		require.NoError(a, err)
		hooks[0].PayloadURL = srv.URL(hooks[0].Name)
	}
	_, err := f.Actions.Webhooks.CreateWebhooks(hooks...)
	require.NoError(a, err)

	c.State.Set(keyStaticApp, static)
	c.State.Set(keyDynamicApp, dynamic)
	c.State.Set(keyMobileApp, mobile)
	c.State.Set(keyWebhooks, hooks)
}

func openWebhook(f *helpers.Fixture, a *retry.Attempt, hook *dto.Webhook) (*pages.WebhooksPage, *pages.WebhookCell) {
	nav, err := f.Actions.LogIn.DefaultTenantUserLogIn()
	require.NoError(a, err)
	admin, err := nav.OpenAdministration()
	require.NoError(a, err)
	list, err := admin.OpenWebhooks()
	require.NoError(a, err)
	list, err = list.FindWebhook(hook.PayloadURL)
	require.NoError(a, err)
	cells, err := list.GetAllWebhooks()
	require.NoError(a, err)
	require.NotEmptyf(a, cells, "webhook %s is not listed", hook.Name)
	return list, cells[0]
}

func assignWebhookRelease(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	static := prepared[*dto.Application](c, a, keyStaticApp)
	hook := prepared[[]*dto.Webhook](c, a, keyWebhooks)[0]

	_, cell := openWebhook(f, a, hook)
	popup, err := cell.PressAssignReleases()
	require.NoError(a, err)
	popup, err = popup.AssignRelease(static.ReleaseName)
	require.NoError(a, err)
	list, err := popup.PressSave(true)
	require.NoError(a, err)

	list, err = list.FindWebhook(hook.PayloadURL)
	require.NoError(a, err)
	cells, err := list.GetAllWebhooks()
	require.NoError(a, err)
	require.NotEmpty(a, cells)
	popup, err = cells[0].PressAssignReleases()
	require.NoError(a, err)
	selected, err := popup.GetAllSelectedReleases()
	require.NoError(a, err)
	require.NoError(a, popup.Close())

	require.Len(a, selected, 1, "exactly one release should be assigned")
	assert.Equal(a, static.ReleaseName, selected[0].ReleaseName, "assigned release")
}

func webhookScanStartedDelivery(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	require.NotEmpty(a, c.Config().Receiver.PublicURL, "receiver.publicURL is required for delivery checks")
	static := prepared[*dto.Application](c, a, keyStaticApp)
	hook := prepared[[]*dto.Webhook](c, a, keyWebhooks)[0]

	srv, err := f.Receiver()
	require.NoError(a, err)
	srv.Reset()

	api, err := f.DefaultAPI(c, dto.ScopeStartScans)
	require.NoError(a, err)
	payload, err := os.Open(helpers.Payload(dto.NewStaticScan().FileToUpload))
	require.NoError(a, err)
	defer payload.Close()
	started, err := api.StaticScans().StartScanWithDefaults(c, static.ReleaseID, payload)
	require.NoError(a, err)
	c.Log().Infow("Static scan started", "scanId", started.ScanID, "release", static.ReleaseName)

	delivery, err := srv.WaitForDelivery(c, hook.Name, helpers.DeliveryTimeout)
	require.NoError(a, err)
	if delivery.Event != "" {
		assert.Contains(a, delivery.Event, "Started", "event of the first delivery")
	}

	list, _ := openWebhook(f, a, hook)
	deliveries, err := list.OpenDeliveries()
	require.NoError(a, err)
	deliveries, err = deliveries.FindWebhook(hook.PayloadURL)
	require.NoError(a, err)
	count, err := deliveries.DeliveriesCount()
	require.NoError(a, err)
	assert.Positive(a, count, "the delivery log should list the delivery")
}
