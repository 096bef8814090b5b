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

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/e2e/helpers"
	"github.com/fodqa/fod-regression/pkg/auth"
	"github.com/fodqa/fod-regression/pkg/idp"
	"github.com/fodqa/fod-regression/pkg/retry"
	"github.com/fodqa/fod-regression/pkg/suite"
	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// groupSSO needs a Keycloak realm federated with the product.
const groupSSO = "sso"

const keySSOUser = "ssoUser"

func ssoClass() *suite.Class {
	return withFixture(&suite.Class{
		Name: "SSO",
		Scenarios: []suite.Scenario{
			{
				Name:          "identityProviderUserTest",
				Description:   "Provision a user in the identity provider realm",
				BacklogItem:   "60311",
				Groups:        []string{groupSSO},
				MaxRetryCount: 2,
				Run:           provisionSSOUser,
			},
			{
				Name:          "oidcTokenTest",
				Description:   "The provisioned user obtains a verifiable OIDC token",
				BacklogItem:   "417023",
				Groups:        []string{groupSSO},
				MaxRetryCount: 2,
				DependsOn:     []string{"identityProviderUserTest"},
				Run:           ssoUserToken,
			},
			{
				Name:          "deprovisionUserTest",
				Description:   "Deleting the user removes it from the realm",
				BacklogItem:   "60311",
				Groups:        []string{groupSSO},
				MaxRetryCount: 1,
				DependsOn:     []string{"oidcTokenTest"},
				Run:           deprovisionSSOUser,
			},
		},
	})
}

func provisioner(c *suite.Context, a *retry.Attempt, f *helpers.Fixture) *idp.Provisioner {
	require.NotEmpty(a, f.Config.SSO.KeycloakURL, "sso.keycloakURL is not configured")
	p, err := idp.New(idp.ConfigFromSSO(f.Config.SSO), c.Log())
	require.NoError(a, err)
	return p
}

func provisionSSOUser(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	p := provisioner(c, a, f)

	name := uniquetag.WithPrefix("ssouser")
	user := idp.User{
		UserName:  name,
		Email:     name + "@fodtest.example.com",
		FirstName: "Auto",
		LastName:  "SSO",
		Password:  "Fod!" + uuid.NewString(),
	}
	id, err := p.EnsureUser(c, user)
	require.NoError(a, err)
	require.NotEmpty(a, id, "keycloak user id")
	f.Cleanup.Add("sso user "+name, func(ctx context.Context) error { return p.DeleteUser(ctx, name) })

	found, err := p.FindUser(c, name)
	require.NoError(a, err)
	require.NotNil(a, found, "user %s is not in the realm", name)
	c.State.Set(keySSOUser, user)
}

func ssoUserToken(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	user := prepared[idp.User](c, a, keySSOUser)
	sso := f.Config.SSO

	provider, err := auth.NewOIDCTokenProvider(c, auth.OIDCConfig{
		Issuer:       sso.Issuer,
		ClientID:     sso.ClientID,
		ClientSecret: sso.ClientSecret,
		Scopes:       sso.Scopes,
	}, auth.NewTokenCache(0))
	require.NoError(a, err)
	token, err := provider.Token(c, user.UserName, user.Password)
	require.NoError(a, err)
	require.NotEmpty(a, token.AccessToken)

	claims, err := auth.ParseClaims(token.AccessToken)
	require.NoError(a, err)
	assert.Equal(a, user.UserName, claims.PreferredUsername)

	if token.IDToken != "" {
		idToken, err := provider.VerifyIDToken(c, token.IDToken)
		require.NoError(a, err)
		assert.Equal(a, sso.Issuer, idToken.Issuer)
	}
	if sso.JWKSURL == "" {
		return
	}
	validator, err := auth.NewJWKSValidator(sso.JWKSURL, sso.Issuer, nil, c.Log())
	require.NoError(a, err)
	defer validator.Close()
	validated, err := validator.Validate(c, token.AccessToken)
	require.NoError(a, err)
	assert.Equal(a, claims.Subject, validated.Subject)
}

func deprovisionSSOUser(c *suite.Context, a *retry.Attempt) {
	f := fixture(c, a)
	p := provisioner(c, a, f)
	user := prepared[idp.User](c, a, keySSOUser)

	require.NoError(a, p.DeleteUser(c, user.UserName))
	found, err := p.FindUser(c, user.UserName)
	require.NoError(a, err)
	assert.Nil(a, found, "user %s is still in the realm", user.UserName)
}
