// Package auth obtains and inspects identity tokens for SSO scenarios: OIDC
// discovery and password grants against the tenant's identity provider, a
// per-user token cache, unverified claim inspection and JWKS-backed signature
// validation.
package auth
