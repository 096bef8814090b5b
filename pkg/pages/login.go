package pages

import (
	"strings"

	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selLoginTenant   = "#TenantCode"
	selLoginUser     = "#UserName"
	selLoginPassword = "#Password"
	selLoginSubmit   = "#LoginButton"
	selLoginError    = ".login-error, .validation-summary-errors"
	selTenantNavbar  = "#tenantTopNav"
	selAdminNavbar   = "#adminTopNav"
)

// LoginPage is the sign-in form of the tenant and admin portals.
type LoginPage struct {
	page
}

func NewLoginPage(d Driver, env Env) *LoginPage {
	return &LoginPage{page: newPage(d, env)}
}

// TenantLogin signs in to the tenant portal.
func (p *LoginPage) TenantLogin(tenantCode, user, password string) (*TenantTopNavbar, error) {
	p.log().Infow("Tenant login", "tenant", tenantCode, "user", user)
	if err := p.login(p.env.UIURL, tenantCode, user, password, selTenantNavbar); err != nil {
		return nil, err
	}
	return &TenantTopNavbar{page: p.page}, nil
}

// AdminLogin signs in to the admin portal.
func (p *LoginPage) AdminLogin(user, password string) (*AdminTopNavbar, error) {
	p.log().Infow("Admin login", "user", user)
	if err := p.login(p.env.AdminURL, "", user, password, selAdminNavbar); err != nil {
		return nil, err
	}
	return &AdminTopNavbar{page: p.page}, nil
}

func (p *LoginPage) login(url, tenantCode, user, password, marker string) error {
	if err := p.d.Navigate(url); err != nil {
		return err
	}
	if err := p.d.WaitVisible(selLoginUser, p.env.Timeout); err != nil {
		return err
	}
	if tenantCode != "" {
		if err := p.d.Type(selLoginTenant, tenantCode); err != nil {
			return err
		}
	}
	if err := p.d.Type(selLoginUser, user); err != nil {
		return err
	}
	if err := p.d.Type(selLoginPassword, password); err != nil {
		return err
	}
	if err := p.d.Click(selLoginSubmit); err != nil {
		return err
	}
	if err := p.d.WaitVisible(marker, p.env.Timeout); err != nil {
		if p.d.Exists(selLoginError) {
			msg, _ := p.d.Text(selLoginError)
			return testerr.UnexpectedConditions("login as %s rejected: %s", user, strings.TrimSpace(msg))
		}
		return err
	}
	return p.waitLoaded()
}
