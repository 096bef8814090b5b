package fodapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type TenantService struct {
	client *Client
}

func (c *Client) Tenants() *TenantService {
	return &TenantService{client: c}
}

// Entitlements returns the assessment entitlements of the caller's tenant.
func (s *TenantService) Entitlements(ctx context.Context) (*TenantEntitlements, error) {
	var out TenantEntitlements
	if err := s.client.do(ctx, http.MethodGet, "api/v3/tenant-entitlements", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FirstEntitlementID returns the first entitlement with units left.
func (s *TenantService) FirstEntitlementID(ctx context.Context) (int, error) {
	ents, err := s.Entitlements(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range ents.TenantEntitlements {
		if e.UnitsPurchased > e.UnitsConsumed {
			return e.EntitlementID, nil
		}
	}
	return 0, errors.New("tenant has no entitlement with units left")
}

func (s *TenantService) OpenSourceEntitlement(ctx context.Context) (*OpenSourceEntitlement, error) {
	var out OpenSourceEntitlement
	if err := s.client.do(ctx, http.MethodGet, "api/v3/tenant-entitlements/open-source", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UserService struct {
	client *Client
}

func (c *Client) Users() *UserService {
	return &UserService{client: c}
}

func (s *UserService) List(ctx context.Context, opts ListOptions) (*ListResponse[User], error) {
	var out ListResponse[User]
	if err := s.client.do(ctx, http.MethodGet, withQuery("api/v3/users", opts.values()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IDByUserName returns the id of the user with the exact login name.
func (s *UserService) IDByUserName(ctx context.Context, userName string) (int, error) {
	list, err := s.List(ctx, ListOptions{Filters: "userName:" + userName})
	if err != nil {
		return 0, err
	}
	for _, u := range list.Items {
		if u.UserName == userName {
			return u.UserID, nil
		}
	}
	return 0, fmt.Errorf("user %q not found", userName)
}

type UserGroupService struct {
	client *Client
}

func (c *Client) UserGroups() *UserGroupService {
	return &UserGroupService{client: c}
}

func (s *UserGroupService) List(ctx context.Context, opts ListOptions) (*ListResponse[UserGroup], error) {
	var out ListResponse[UserGroup]
	if err := s.client.do(ctx, http.MethodGet, withQuery("api/v3/user-management/user-groups", opts.values()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
