package actions

import (
	"github.com/fodqa/fod-regression/pkg/pages"
)

// LogIn signs users in. Every login first drops the session cookies so the
// previous user is logged off.
type LogIn struct {
	*base
}

func (l *LogIn) reset() error {
	return l.deps.Driver.ClearCookies()
}

// TenantUserLogIn signs userName in to tenantCode.
func (l *LogIn) TenantUserLogIn(userName, password, tenantCode string) (*pages.TenantTopNavbar, error) {
	if err := l.reset(); err != nil {
		return nil, err
	}
	return pages.NewLoginPage(l.deps.Driver, l.deps.Env).TenantLogin(tenantCode, userName, password)
}

// DefaultTenantUserLogIn signs in with the configured tenant credentials.
func (l *LogIn) DefaultTenantUserLogIn() (*pages.TenantTopNavbar, error) {
	c := l.deps.Creds
	return l.TenantUserLogIn(c.TenantUser, c.TenantPassword, c.TenantCode)
}

// TAMUserLogin signs the technical account manager in to a tenant they are assigned to.
func (l *LogIn) TAMUserLogin(tamUser, password, tenantCode string) (*pages.TenantTopNavbar, error) {
	l.log().Infow("TAM login", "tam", tamUser, "tenant", tenantCode)
	return l.TenantUserLogIn(tamUser, password, tenantCode)
}

// AdminUserLogIn signs the configured admin in to the admin portal.
func (l *LogIn) AdminUserLogIn() (*pages.AdminTopNavbar, error) {
	if err := l.reset(); err != nil {
		return nil, err
	}
	c := l.deps.Creds
	return pages.NewLoginPage(l.deps.Driver, l.deps.Env).AdminLogin(c.AdminUser, c.AdminPassword)
}
