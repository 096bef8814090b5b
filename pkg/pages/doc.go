// Package pages holds the page objects of the tenant and admin portals.
//
// Every page object wraps a Driver and exposes the actions one screen offers.
// Actions that navigate return the page object of the screen they land on, so
// a test reads as a chain of calls:
//
//	nav, err := pages.NewLoginPage(sess, env).TenantLogin(code, user, pass)
//	apps, err := nav.OpenApplications()
//	popup, err := apps.PressAddApplication()
//
// Selectors are package constants next to the page that uses them.
package pages
