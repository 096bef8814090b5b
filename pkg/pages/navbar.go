package pages

const (
	selNavApplications   = "#tenantTopNav a[href$='/Applications']"
	selNavReports        = "#tenantTopNav a[href$='/Reports']"
	selNavAdministration = "#tenantTopNav a[href$='/Admin/Settings']"
	selNavDataExport     = "#tenantTopNav a[href$='/DataExport']"
	selNavUserMenu       = "#tenantTopNav .user-menu-toggle"
	selNavTokens         = "#tenantTopNav a[href$='/PersonalAccessTokens']"
	selNavLogout         = "a.logout"

	selAdminNavTenants  = "#adminTopNav a[href$='/Tenants']"
	selAdminNavUserMenu = "#adminTopNav .user-menu-toggle"
)

// TenantTopNavbar is the navigation bar of the tenant portal.
type TenantTopNavbar struct {
	page
}

// NewTenantTopNavbar binds the navbar of an already signed-in session.
func NewTenantTopNavbar(d Driver, env Env) *TenantTopNavbar {
	return &TenantTopNavbar{page: newPage(d, env)}
}

func (n *TenantTopNavbar) OpenApplications() (*ApplicationsPage, error) {
	if err := n.open(selNavApplications, selApplicationsGrid); err != nil {
		return nil, err
	}
	return newApplicationsPage(n.page), nil
}

func (n *TenantTopNavbar) OpenAdministration() (*AdministrationPage, error) {
	if err := n.open(selNavAdministration, selAdminSideMenu); err != nil {
		return nil, err
	}
	return &AdministrationPage{page: n.page}, nil
}

func (n *TenantTopNavbar) OpenReports() (*ReportsPage, error) {
	if err := n.open(selNavReports, selReportsGrid); err != nil {
		return nil, err
	}
	return newReportsPage(n.page), nil
}

func (n *TenantTopNavbar) OpenDataExport() (*DataExportPage, error) {
	if err := n.open(selNavDataExport, selExportsGrid); err != nil {
		return nil, err
	}
	return newDataExportPage(n.page), nil
}

func (n *TenantTopNavbar) OpenPersonalAccessTokens() (*PersonalAccessTokensPage, error) {
	if err := n.d.Click(selNavUserMenu); err != nil {
		return nil, err
	}
	if err := n.open(selNavTokens, selTokensGrid); err != nil {
		return nil, err
	}
	return newPersonalAccessTokensPage(n.page), nil
}

// Logout signs out and returns the login page.
func (n *TenantTopNavbar) Logout() (*LoginPage, error) {
	if err := n.d.Click(selNavUserMenu); err != nil {
		return nil, err
	}
	if err := n.d.Click(selNavLogout); err != nil {
		return nil, err
	}
	if err := n.d.WaitVisible(selLoginUser, n.env.Timeout); err != nil {
		return nil, err
	}
	return &LoginPage{page: n.page}, nil
}

// AdminTopNavbar is the navigation bar of the admin portal.
type AdminTopNavbar struct {
	page
}

// NewAdminTopNavbar binds the admin navbar of an already signed-in session.
func NewAdminTopNavbar(d Driver, env Env) *AdminTopNavbar {
	return &AdminTopNavbar{page: newPage(d, env)}
}

func (n *AdminTopNavbar) OpenTenants() (*TenantsPage, error) {
	if err := n.open(selAdminNavTenants, selTenantsGrid); err != nil {
		return nil, err
	}
	return newTenantsPage(n.page), nil
}

func (n *AdminTopNavbar) Logout() (*LoginPage, error) {
	if err := n.d.Click(selAdminNavUserMenu); err != nil {
		return nil, err
	}
	if err := n.d.Click(selNavLogout); err != nil {
		return nil, err
	}
	if err := n.d.WaitVisible(selLoginUser, n.env.Timeout); err != nil {
		return nil, err
	}
	return &LoginPage{page: n.page}, nil
}
