// Package fodapi is the REST client for the product's v3 API.
//
// A Client authenticates once, with a fixed bearer token (personal access
// token), basic credentials, or an OAuth grant run by Authenticate, and then
// exposes one service per API area:
//
//	c, err := fodapi.Init(ctx, cfg, fodapi.UserPayload{UserName: u, Password: p}, tenant, dto.ScopeViewApps)
//	apps, err := c.Applications().List(ctx, fodapi.ListOptions{Limit: 50})
//
// Typed calls turn non-2xx answers into *APIError. Tests that assert on
// rejected calls use Do, which hands back the raw status and body.
package fodapi
