package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fodqa/fod-regression/pkg/uniquetag"
)

// Tenant describes a tenant created from the admin portal together with its
// security lead.
type Tenant struct {
	TenantName string
	TenantCode string
	// UserName, UserEmail, FirstName and LastName describe the initial security lead.
	UserName  string
	UserEmail string
	FirstName string
	LastName  string
	// AssignedUser is the TAM responsible for the tenant.
	AssignedUser      string
	EntitlementModel  EntitlementModel
	SubscriptionModel SubscriptionModel
	// OptionsToEnable are tenant feature check-box labels.
	OptionsToEnable []string
	Entitlement     *Entitlement
	RunTag          string
}

// NewTenant returns a tenant with a Fortify entitlement.
func NewTenant() *Tenant {
	tag := uniquetag.Generate()
	return &Tenant{
		TenantName:        "AutoTenant" + tag,
		TenantCode:        "AutoTenant" + tag,
		UserName:          "AutoSecLead" + tag,
		UserEmail:         "autoseclead" + tag + "@fodtest.example.com",
		FirstName:         "Auto",
		LastName:          "SecLead" + tag,
		EntitlementModel:  EntitlementModelUnits,
		SubscriptionModel: SubscriptionPeriod,
		Entitlement:       NewEntitlement(),
		RunTag:            tag,
	}
}

func (t *Tenant) Validate() error {
	var errs []error
	if t.TenantName == "" || t.TenantCode == "" {
		errs = append(errs, errors.New("tenant name and code are required"))
	}
	if strings.ContainsAny(t.TenantCode, ` \/`) {
		errs = append(errs, fmt.Errorf("tenant code %q must not contain spaces or slashes", t.TenantCode))
	}
	if t.UserName == "" {
		errs = append(errs, errors.New("security lead user name is required"))
	}
	if t.Entitlement != nil {
		if err := t.Entitlement.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("entitlement: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Entitlement is a purchased quota of scan units.
type Entitlement struct {
	EntitlementType   EntitlementType
	QuantityPurchased int
	StartDate         time.Time
	EndDate           time.Time
	Description       string
}

var today = func() time.Time { return time.Now().UTC().Truncate(24 * time.Hour) }

// NewEntitlement returns a one-year Fortify entitlement of 10000 units.
func NewEntitlement() *Entitlement {
	start := today()
	return &Entitlement{
		EntitlementType:   EntitlementFortify,
		QuantityPurchased: 10000,
		StartDate:         start,
		EndDate:           start.AddDate(1, 0, 0),
		Description:       uniquetag.WithPrefix("Entitlement"),
	}
}

func (e *Entitlement) Validate() error {
	var errs []error
	if !oneOf(e.EntitlementType, EntitlementTypes) {
		errs = append(errs, fmt.Errorf("unknown entitlement type %q", e.EntitlementType))
	}
	if e.QuantityPurchased <= 0 {
		errs = append(errs, fmt.Errorf("quantity purchased must be positive, got %d", e.QuantityPurchased))
	}
	if !e.EndDate.After(e.StartDate) {
		errs = append(errs, errors.New("end date must be after start date"))
	}
	return errors.Join(errs...)
}

// TenantUser is a user created inside a tenant.
type TenantUser struct {
	UserName  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      TenantUserRole
	Tenant    string
}

// NewTenantUser returns a developer.
func NewTenantUser() *TenantUser {
	tag := uniquetag.Generate()
	return &TenantUser{
		UserName:  "AutoUser" + tag,
		Email:     "autouser" + tag + "@fodtest.example.com",
		FirstName: "Auto",
		LastName:  "User" + tag,
		Role:      RoleDeveloper,
	}
}

func (u *TenantUser) Validate() error {
	var errs []error
	if u.UserName == "" {
		errs = append(errs, errors.New("user name is required"))
	}
	if !strings.Contains(u.Email, "@") {
		errs = append(errs, fmt.Errorf("invalid email %q", u.Email))
	}
	if !oneOf(u.Role, TenantUserRoles) {
		errs = append(errs, fmt.Errorf("unknown role %q", u.Role))
	}
	return errors.Join(errs...)
}

// PersonalAccessToken is a scoped API credential created from the user menu.
type PersonalAccessToken struct {
	Name   string
	Scopes []Scope
	// Secret is shown once after saving.
	Secret string
}

// NewPersonalAccessToken returns a token with the api-tenant scope.
func NewPersonalAccessToken() *PersonalAccessToken {
	return &PersonalAccessToken{
		Name:   uniquetag.WithPrefix("Token "),
		Scopes: []Scope{ScopeAPITenant},
	}
}

func (p *PersonalAccessToken) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("token name is required"))
	}
	if len(p.Scopes) == 0 {
		errs = append(errs, errors.New("at least one scope is required"))
	}
	for _, s := range p.Scopes {
		if !oneOf(s, Scopes) {
			errs = append(errs, fmt.Errorf("unknown scope %q", s))
		}
	}
	return errors.Join(errs...)
}
