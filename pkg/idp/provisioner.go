// Package idp provisions identity-provider users for SSO scenarios through the
// Keycloak admin API.
package idp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"go.uber.org/zap"

	"github.com/fodqa/fod-regression/pkg/config"
)

// tokenMargin is subtracted from the admin token lifetime before reuse.
const tokenMargin = 30 * time.Second

type Config struct {
	URL           string
	Realm         string
	AdminRealm    string
	AdminUser     string
	AdminPassword string

	InsecureSkipVerify bool
}

// ConfigFromSSO maps the sso section of the harness configuration.
func ConfigFromSSO(sso config.SSO) Config {
	return Config{
		URL:           sso.KeycloakURL,
		Realm:         sso.KeycloakRealm,
		AdminRealm:    sso.KeycloakAdminRealm,
		AdminUser:     sso.KeycloakAdminUser,
		AdminPassword: sso.KeycloakAdminPassword,
	}
}

// User is an SSO identity that should exist in the realm.
type User struct {
	UserName  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	// Groups are joined by name; missing groups are an error.
	Groups     []string
	Attributes map[string][]string
}

type Provisioner struct {
	kc  *gocloak.GoCloak
	cfg Config
	log *zap.SugaredLogger

	mu      sync.Mutex
	token   string
	expires time.Time
}

func New(cfg Config, log *zap.SugaredLogger) (*Provisioner, error) {
	if cfg.URL == "" || cfg.Realm == "" {
		return nil, errors.New("keycloak url and realm are required")
	}
	if cfg.AdminUser == "" {
		return nil, errors.New("keycloak admin user is required")
	}
	if cfg.AdminRealm == "" {
		cfg.AdminRealm = "master"
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	kc := gocloak.NewClient(strings.TrimRight(cfg.URL, "/"))
	if cfg.InsecureSkipVerify {
		kc.RestyClient().SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // opt-in for QA stages
	}
	return &Provisioner{kc: kc, cfg: cfg, log: log}, nil
}

// adminToken logs in to the admin realm, reusing the token until shortly
// before it expires.
func (p *Provisioner) adminToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.expires) {
		return p.token, nil
	}
	jwt, err := p.kc.LoginAdmin(ctx, p.cfg.AdminUser, p.cfg.AdminPassword, p.cfg.AdminRealm)
	if err != nil {
		return "", fmt.Errorf("keycloak admin login failed: %w", err)
	}
	p.token = jwt.AccessToken
	p.expires = time.Now().Add(time.Duration(jwt.ExpiresIn)*time.Second - tokenMargin)
	return p.token, nil
}

// FindUser returns the user with the exact user name, or nil.
func (p *Provisioner) FindUser(ctx context.Context, username string) (*gocloak.User, error) {
	token, err := p.adminToken(ctx)
	if err != nil {
		return nil, err
	}
	users, err := p.kc.GetUsers(ctx, token, p.cfg.Realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(username),
		Exact:    gocloak.BoolP(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}
	for _, u := range users {
		if u.Username != nil && strings.EqualFold(*u.Username, username) {
			return u, nil
		}
	}
	return nil, nil
}

// EnsureUser creates u when it does not exist yet, then resets its password
// and joins its groups. It returns the Keycloak user id.
func (p *Provisioner) EnsureUser(ctx context.Context, u User) (string, error) {
	if u.UserName == "" {
		return "", errors.New("user name is required")
	}
	existing, err := p.FindUser(ctx, u.UserName)
	if err != nil {
		return "", err
	}
	token, err := p.adminToken(ctx)
	if err != nil {
		return "", err
	}

	var id string
	if existing != nil {
		id = gocloak.PString(existing.ID)
		p.log.Debugw("SSO user already present", "user", u.UserName, "id", id)
	} else {
		user := gocloak.User{
			Username:      gocloak.StringP(u.UserName),
			Email:         gocloak.StringP(u.Email),
			FirstName:     gocloak.StringP(u.FirstName),
			LastName:      gocloak.StringP(u.LastName),
			Enabled:       gocloak.BoolP(true),
			EmailVerified: gocloak.BoolP(true),
		}
		if len(u.Attributes) > 0 {
			attrs := u.Attributes
			user.Attributes = &attrs
		}
		id, err = p.kc.CreateUser(ctx, token, p.cfg.Realm, user)
		if err != nil {
			return "", fmt.Errorf("failed to create user %s: %w", u.UserName, err)
		}
		p.log.Infow("Created SSO user", "user", u.UserName, "id", id)
	}

	if u.Password != "" {
		if err := p.kc.SetPassword(ctx, token, id, p.cfg.Realm, u.Password, false); err != nil {
			return id, fmt.Errorf("failed to set password of %s: %w", u.UserName, err)
		}
	}
	for _, name := range u.Groups {
		groupID, err := p.groupID(ctx, token, name)
		if err != nil {
			return id, err
		}
		if err := p.kc.AddUserToGroup(ctx, token, p.cfg.Realm, id, groupID); err != nil {
			return id, fmt.Errorf("failed to add %s to group %s: %w", u.UserName, name, err)
		}
	}
	return id, nil
}

func (p *Provisioner) groupID(ctx context.Context, token, name string) (string, error) {
	groups, err := p.kc.GetGroups(ctx, token, p.cfg.Realm, gocloak.GetGroupsParams{Search: gocloak.StringP(name)})
	if err != nil {
		return "", fmt.Errorf("failed to look up group %s: %w", name, err)
	}
	for _, g := range groups {
		if gocloak.PString(g.Name) == name {
			return gocloak.PString(g.ID), nil
		}
	}
	return "", fmt.Errorf("group %s not found in realm %s", name, p.cfg.Realm)
}

// DeleteUser removes the user. A missing user is not an error.
func (p *Provisioner) DeleteUser(ctx context.Context, username string) error {
	existing, err := p.FindUser(ctx, username)
	if err != nil || existing == nil {
		return err
	}
	token, err := p.adminToken(ctx)
	if err != nil {
		return err
	}
	if err := p.kc.DeleteUser(ctx, token, p.cfg.Realm, gocloak.PString(existing.ID)); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	p.log.Infow("Deleted SSO user", "user", username)
	return nil
}
