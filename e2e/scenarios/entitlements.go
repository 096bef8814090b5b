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

const keyTenant = "tenant"

func entitlementsClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "Entitlements",
		Scenarios: []suite.Scenario{
			{
				Name:          "createTenantTest",
				Description:   "Admin creates a tenant with a Fortify entitlement",
				BacklogItem:   "319002",
				Groups:        []string{groupRegression},
				MaxRetryCount: 1,
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					tenant := dto.NewTenant()
					require.NoError(a, f.Actions.Tenants.CreateTenant(tenant))
					c.State.Set(keyTenant, tenant)
				},
			},
			{
				Name:          "debrickedEntitlementTest",
				Description:   "Admin adds a Debricked entitlement to the new tenant",
				BacklogItem:   "688003",
				Groups:        []string{groupRegression},
				MaxRetryCount: 2,
				DependsOn:     []string{"createTenantTest"},
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					tenant := prepared[*dto.Tenant](c, a, keyTenant)
					ent := dto.NewEntitlement()
					ent.EntitlementType = dto.EntitlementDebricked
					ent.QuantityPurchased = 100
					id, err := f.Actions.Entitlements.CreateEntitlements(tenant, true, ent)
					require.NoError(a, err)
					assert.Positive(a, id, "entitlement id")
				},
			},
			{
				Name:          "tenantEntitlementsApiTest",
				Description:   "The API lists the default tenant's entitlements with consistent units",
				BacklogItem:   "688003",
				Groups:        []string{groupRegression, groupSmoke},
				MaxRetryCount: 1,
				Run: func(c *suite.Context, a *retry.Attempt) {
					f := fixture(c, a)
					api, err := f.DefaultAPI(c, dto.ScopeViewTenantData)
					require.NoError(a, err)
					ents, err := api.Tenants().Entitlements(c)
					require.NoError(a, err)
					require.NotEmpty(a, ents.TenantEntitlements, "tenant entitlements")
					for _, e := range ents.TenantEntitlements {
						assert.GreaterOrEqualf(a, e.UnitsPurchased, e.UnitsConsumed, "entitlement %d consumed more than purchased", e.EntitlementID)
					}
				},
			},
		},
	})
}
