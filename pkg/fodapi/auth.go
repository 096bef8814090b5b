package fodapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fodqa/fod-regression/pkg/config"
	"github.com/fodqa/fod-regression/pkg/dto"
)

// TokenPath is the product's OAuth token endpoint, relative to the API root.
const TokenPath = "/oauth/token"

// Credentials select the grant used to obtain an API token. Set either
// TenantCode, UserName and Password (password grant) or APIKey and APISecret
// (client credentials).
type Credentials struct {
	TenantCode string
	UserName   string
	Password   string

	APIKey    string
	APISecret string
}

// Username is the login the password grant expects: tenant\user.
func (c Credentials) Username() string {
	return c.TenantCode + `\` + c.UserName
}

func (c Credentials) validate() error {
	switch {
	case c.APIKey != "":
		if c.APISecret == "" {
			return errors.New("api secret is required with an api key")
		}
	case c.UserName != "":
		if c.TenantCode == "" || c.Password == "" {
			return errors.New("tenant code and password are required with a user name")
		}
	default:
		return errors.New("either a user name or an api key is required")
	}
	return nil
}

func scopeStrings(scopes []dto.Scope) []string {
	if len(scopes) == 0 {
		scopes = []dto.Scope{dto.ScopeAPITenant}
	}
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

// Authenticate obtains a token for creds with scopes and uses it for every
// following request. The token is reused until it expires, then fetched again.
func (c *Client) Authenticate(ctx context.Context, creds Credentials, scopes ...dto.Scope) error {
	if err := creds.validate(); err != nil {
		return err
	}
	tokenURL, err := c.resolve(TokenPath)
	if err != nil {
		return err
	}
	// oauth2 picks the HTTP client from the context
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	var src oauth2.TokenSource
	if creds.APIKey != "" {
		cc := &clientcredentials.Config{
			ClientID:     creds.APIKey,
			ClientSecret: creds.APISecret,
			TokenURL:     tokenURL.String(),
			Scopes:       scopeStrings(scopes),
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		src = cc.TokenSource(ctx)
	} else {
		cfg := &oauth2.Config{
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL.String(), AuthStyle: oauth2.AuthStyleInParams},
			Scopes:   scopeStrings(scopes),
		}
		src = oauth2.ReuseTokenSource(nil, &passwordSource{ctx: ctx, cfg: cfg, user: creds.Username(), pass: creds.Password})
	}

	// fetch now so bad credentials fail here rather than on the first call
	if _, err := src.Token(); err != nil {
		return fmt.Errorf("authenticate %s: %w", describe(creds), err)
	}
	c.log.Infow("Authenticated against API", "principal", describe(creds), "scopes", scopeStrings(scopes))
	c.tokens, c.bearer = src, ""
	return nil
}

// Token returns the API token in use, fetching a new one when it expired.
func (c *Client) Token() (*oauth2.Token, error) {
	if c.tokens == nil {
		return nil, errors.New("client is not authenticated with a token grant")
	}
	return c.tokens.Token()
}

func describe(creds Credentials) string {
	if creds.APIKey != "" {
		return "apikey:" + creds.APIKey
	}
	return creds.Username()
}

// passwordSource runs the resource-owner password grant. The product issues
// no refresh tokens, so an expired token means a fresh grant.
type passwordSource struct {
	ctx  context.Context
	cfg  *oauth2.Config
	user string
	pass string
	mu   sync.Mutex
}

func (p *passwordSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.PasswordCredentialsToken(p.ctx, p.user, p.pass)
}

// UserPayload is the user half of Init's arguments.
type UserPayload struct {
	UserName string
	Password string
}

// Init builds a client from cfg and authenticates user in tenant with scopes.
// tenant may be the tenant name or code; a display name with spaces is reduced
// to the code the product derives from it.
func Init(ctx context.Context, cfg config.Config, user UserPayload, tenant string, scopes ...dto.Scope) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	creds := Credentials{TenantCode: strings.ReplaceAll(tenant, " ", ""), UserName: user.UserName, Password: user.Password}
	if err := c.Authenticate(ctx, creds, scopes...); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// InitAPIKey builds a client from cfg authenticated with the configured API key.
func InitAPIKey(ctx context.Context, cfg config.Config, scopes ...dto.Scope) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	creds := Credentials{APIKey: cfg.Credentials.APIKey, APISecret: cfg.Credentials.APISecret}
	if err := c.Authenticate(ctx, creds, scopes...); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}
