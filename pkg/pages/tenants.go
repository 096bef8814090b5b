package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/testerr"
)

const (
	selTenantsGrid   = "#tenantsGrid"
	selTenantsSearch = "#tenantsSearch"
	selAddTenant     = "#btnAddTenant"
	selTenantLink    = "a.tenant-link"

	selTenantName         = "#tenantName"
	selTenantCode         = "#tenantCode"
	selTenantAssignedUser = "#assignedUser"
	selTenantEntModel     = "#entitlementModel"
	selTenantSubModel     = "#subscriptionModel"
	selTenantOption       = ".modal.show [data-option=%q] input[type='checkbox']"
	selTenantLeadUser     = "#securityLeadUserName"
	selTenantLeadEmail    = "#securityLeadEmail"
	selTenantLeadFirst    = "#securityLeadFirstName"
	selTenantLeadLast     = "#securityLeadLastName"

	selTenantDetails      = "#tenantDetails"
	selTenantEntitlements = "#tenantDetails a[href$='/Entitlements']"
	selEntitlementsGrid   = "#entitlementsGrid"
	selAddEntitlement     = "#btnAddEntitlement"
	selEntitlementType    = "#entitlementType"
	selEntitlementQty     = "#quantityPurchased"
	selEntitlementStart   = "#startDate"
	selEntitlementEnd     = "#endDate"
	selEntitlementDesc    = "#entitlementDescription"
)

const dateLayout = "2006/01/02"

// TenantsPage is the admin list of tenants.
type TenantsPage struct {
	page
	Grid Table
}

func newTenantsPage(p page) *TenantsPage {
	return &TenantsPage{page: p, Grid: newTable(p, selTenantsGrid)}
}

func (t *TenantsPage) PressAddTenant() (*TenantWizard, error) {
	if err := t.d.Click(selAddTenant); err != nil {
		return nil, err
	}
	if err := t.d.WaitVisible(selTenantName, t.env.Timeout); err != nil {
		return nil, err
	}
	return &TenantWizard{page: t.page}, nil
}

// OpenTenant searches for the tenant called name and opens its details.
func (t *TenantsPage) OpenTenant(name string) (*TenantDetailsPage, error) {
	if err := t.search(selTenantsSearch, name); err != nil {
		return nil, err
	}
	row, err := t.Grid.FindRow(0, name)
	if err != nil {
		return nil, err
	}
	if err := t.Grid.clickInRow(row, selTenantLink); err != nil {
		return nil, err
	}
	if err := t.d.WaitVisible(selTenantDetails, t.env.LoadTimeout); err != nil {
		return nil, err
	}
	return &TenantDetailsPage{page: t.page}, t.waitLoaded()
}

// TenantWizard is the multi-step create-tenant form.
type TenantWizard struct {
	page
}

func (w *TenantWizard) Fill(tenant *dto.Tenant) error {
	if err := w.d.Type(selTenantName, tenant.TenantName); err != nil {
		return err
	}
	if err := w.d.Type(selTenantCode, tenant.TenantCode); err != nil {
		return err
	}
	if err := w.selectIf(selTenantAssignedUser, tenant.AssignedUser); err != nil {
		return err
	}
	if err := w.selectIf(selTenantEntModel, string(tenant.EntitlementModel)); err != nil {
		return err
	}
	if err := w.selectIf(selTenantSubModel, string(tenant.SubscriptionModel)); err != nil {
		return err
	}
	for _, opt := range tenant.OptionsToEnable {
		if err := w.d.SetChecked(fmt.Sprintf(selTenantOption, opt), true); err != nil {
			return err
		}
	}
	if err := w.d.Click(selModalNext); err != nil {
		return err
	}
	if err := w.d.WaitVisible(selTenantLeadUser, w.env.Timeout); err != nil {
		return err
	}
	fields := [][2]string{
		{selTenantLeadUser, tenant.UserName},
		{selTenantLeadEmail, tenant.UserEmail},
		{selTenantLeadFirst, tenant.FirstName},
		{selTenantLeadLast, tenant.LastName},
	}
	for _, f := range fields {
		if err := w.fill(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (w *TenantWizard) Submit() (*TenantsPage, error) {
	if err := w.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return newTenantsPage(w.page), nil
}

// TenantDetailsPage is the admin view of one tenant.
type TenantDetailsPage struct {
	page
}

func (t *TenantDetailsPage) OpenEntitlements() (*EntitlementsPage, error) {
	if err := t.open(selTenantEntitlements, selEntitlementsGrid); err != nil {
		return nil, err
	}
	return &EntitlementsPage{page: t.page, Grid: newTable(t.page, selEntitlementsGrid)}, nil
}

// EntitlementsPage lists a tenant's entitlements.
type EntitlementsPage struct {
	page
	Grid Table
}

func (e *EntitlementsPage) PressAddEntitlement() (*EntitlementPopup, error) {
	if err := e.d.Click(selAddEntitlement); err != nil {
		return nil, err
	}
	if err := e.d.WaitVisible(selEntitlementQty, e.env.Timeout); err != nil {
		return nil, err
	}
	return &EntitlementPopup{page: e.page}, nil
}

// FirstEntitlementID returns the id in the first row of the grid.
func (e *EntitlementsPage) FirstEntitlementID() (int, error) {
	empty, err := e.Grid.IsEmpty()
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, testerr.ElementNotFound("entitlement", selEntitlementsGrid)
	}
	text, err := e.Grid.CellText(0, 0)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, testerr.UnexpectedConditions("entitlement id %q is not a number", text)
	}
	return id, nil
}

// EntitlementPopup is the add-entitlement form.
type EntitlementPopup struct {
	page
}

func (p *EntitlementPopup) Fill(ent *dto.Entitlement) error {
	if err := p.selectIf(selEntitlementType, string(ent.EntitlementType)); err != nil {
		return err
	}
	if err := p.d.SetValue(selEntitlementQty, strconv.Itoa(ent.QuantityPurchased)); err != nil {
		return err
	}
	if err := p.d.SetValue(selEntitlementStart, ent.StartDate.Format(dateLayout)); err != nil {
		return err
	}
	if err := p.d.SetValue(selEntitlementEnd, ent.EndDate.Format(dateLayout)); err != nil {
		return err
	}
	return p.fill(selEntitlementDesc, ent.Description)
}

func (p *EntitlementPopup) PressSave() (*EntitlementsPage, error) {
	if err := p.saveModal(selModalSave); err != nil {
		return nil, err
	}
	return &EntitlementsPage{page: p.page, Grid: newTable(p.page, selEntitlementsGrid)}, nil
}
