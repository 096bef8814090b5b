package actions

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fodqa/fod-regression/pkg/dto"
	"github.com/fodqa/fod-regression/pkg/pages"
)

type Tenants struct {
	*base
	login        *LogIn
	entitlements *Entitlements
}

// CreateTenant creates tenant from the admin portal. When the tenant carries an
// entitlement it is added right after.
func (t *Tenants) CreateTenant(tenant *dto.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return fmt.Errorf("invalid tenant: %w", err)
	}
	if tenant.AssignedUser == "" {
		tenant.AssignedUser = t.deps.Creds.TAMUser
	}
	t.log().Infow("Creating tenant", "tenant", tenant.TenantName, "code", tenant.TenantCode)

	err := t.traced("CreateTenant", func() error {
		nav, err := t.login.AdminUserLogIn()
		if err != nil {
			return err
		}
		list, err := nav.OpenTenants()
		if err != nil {
			return err
		}
		wizard, err := list.PressAddTenant()
		if err != nil {
			return err
		}
		if err := wizard.Fill(tenant); err != nil {
			return err
		}
		if _, err := wizard.Submit(); err != nil {
			return err
		}
		if tenant.Entitlement == nil {
			return nil
		}
		_, err = t.entitlements.CreateEntitlements(tenant, false, tenant.Entitlement)
		return err
	}, attribute.String("tenant", tenant.TenantCode))
	if err != nil {
		return fmt.Errorf("create tenant %s: %w", tenant.TenantName, err)
	}
	return nil
}

type Entitlements struct {
	*base
	login *LogIn
}

// CreateEntitlements adds ents to tenant and returns the id of the first
// entitlement listed afterwards. With loginFirst the admin signs in before;
// otherwise the browser must already be in the admin portal.
func (e *Entitlements) CreateEntitlements(tenant *dto.Tenant, loginFirst bool, ents ...*dto.Entitlement) (int, error) {
	var nav *pages.AdminTopNavbar
	if loginFirst {
		var err error
		if nav, err = e.login.AdminUserLogIn(); err != nil {
			return 0, err
		}
	} else {
		nav = pages.NewAdminTopNavbar(e.deps.Driver, e.deps.Env)
	}

	var id int
	err := e.traced("CreateEntitlements", func() error {
		list, err := nav.OpenTenants()
		if err != nil {
			return err
		}
		details, err := list.OpenTenant(tenant.TenantName)
		if err != nil {
			return err
		}
		page, err := details.OpenEntitlements()
		if err != nil {
			return err
		}
		for _, ent := range ents {
			if err := ent.Validate(); err != nil {
				return fmt.Errorf("invalid entitlement: %w", err)
			}
			e.log().Infow("Adding entitlement", "tenant", tenant.TenantName, "type", ent.EntitlementType, "quantity", ent.QuantityPurchased)
			popup, err := page.PressAddEntitlement()
			if err != nil {
				return err
			}
			if err := popup.Fill(ent); err != nil {
				return err
			}
			if page, err = popup.PressSave(); err != nil {
				return err
			}
		}
		id, err = page.FirstEntitlementID()
		return err
	}, attribute.String("tenant", tenant.TenantCode), attribute.Int("count", len(ents)))
	if err != nil {
		return 0, fmt.Errorf("create entitlements for %s: %w", tenant.TenantName, err)
	}
	return id, nil
}
