// Package actions composes page objects into the multi-step flows tests reuse:
// signing in, creating applications, tenants, entitlements, webhooks and
// attributes, starting scans and downloading reports and exports.
//
// Helpers leave the browser on the page they finished on and return the page
// object or value a test continues with.
package actions
