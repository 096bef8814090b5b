package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testIssuer struct {
	server      *httptest.Server
	key         *rsa.PrivateKey
	kid         string
	tokenCalls  atomic.Int32
	lastGrant   atomic.Value
	accessToken string
}

func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	iss := &testIssuer{key: priv, kid: "kid-" + t.Name(), accessToken: "access-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                iss.server.URL,
			"authorization_endpoint":                iss.server.URL + "/auth",
			"token_endpoint":                        iss.server.URL + "/token",
			"jwks_uri":                              iss.server.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []interface{}{map[string]interface{}{
				"kty": "RSA",
				"kid": iss.kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(priv.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		iss.tokenCalls.Add(1)
		_ = r.ParseForm()
		iss.lastGrant.Store(r.PostForm.Get("grant_type"))
		if r.PostForm.Get("grant_type") == "password" && r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": iss.accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     iss.sign(t, jwt.MapClaims{"sub": "u1", "aud": "fod-web", "exp": time.Now().Add(time.Hour).Unix()}),
		})
	})
	iss.server = httptest.NewServer(mux)
	t.Cleanup(iss.server.Close)
	return iss
}

func (i *testIssuer) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = i.server.URL
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = i.kid
	s, err := tok.SignedString(i.key)
	require.NoError(t, err)
	return s
}

func TestNewOIDCTokenProviderRequiresIssuer(t *testing.T) {
	_, err := NewOIDCTokenProvider(context.Background(), OIDCConfig{ClientID: "c"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer and client-id are required")
}

func TestPasswordGrantIsCached(t *testing.T) {
	iss := newTestIssuer(t)
	cache := NewTokenCache(0)
	p, err := NewOIDCTokenProvider(context.Background(), OIDCConfig{Issuer: iss.server.URL, ClientID: "fod-web"}, cache)
	require.NoError(t, err)
	require.Equal(t, iss.server.URL+"/token", p.Endpoint().TokenURL)

	tok, err := p.Token(context.Background(), "sso.user", "secret")
	require.NoError(t, err)
	require.Equal(t, "access-1", tok.AccessToken)
	require.NotEmpty(t, tok.IDToken)
	require.Equal(t, "password", iss.lastGrant.Load())

	_, err = p.Token(context.Background(), "sso.user", "secret")
	require.NoError(t, err)
	require.Equal(t, int32(1), iss.tokenCalls.Load())

	idToken, err := p.VerifyIDToken(context.Background(), tok.IDToken)
	require.NoError(t, err)
	require.Equal(t, "u1", idToken.Subject)
}

func TestPasswordGrantRejected(t *testing.T) {
	iss := newTestIssuer(t)
	p, err := NewOIDCTokenProvider(context.Background(), OIDCConfig{Issuer: iss.server.URL, ClientID: "fod-web"}, nil)
	require.NoError(t, err)
	_, err = p.Token(context.Background(), "sso.user", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password grant for sso.user failed")
}

func TestServiceToken(t *testing.T) {
	iss := newTestIssuer(t)
	p, err := NewOIDCTokenProvider(context.Background(), OIDCConfig{Issuer: iss.server.URL, ClientID: "svc", ClientSecret: "s"}, nil)
	require.NoError(t, err)
	tok, err := p.ServiceToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-1", tok.AccessToken)
	require.Equal(t, "client_credentials", iss.lastGrant.Load())
}

func TestVerifyIDTokenRejectsWrongAudience(t *testing.T) {
	iss := newTestIssuer(t)
	p, err := NewOIDCTokenProvider(context.Background(), OIDCConfig{Issuer: iss.server.URL, ClientID: "fod-web"}, nil)
	require.NoError(t, err)
	raw := iss.sign(t, jwt.MapClaims{"sub": "u1", "aud": "other", "exp": time.Now().Add(time.Hour).Unix()})
	_, err = p.VerifyIDToken(context.Background(), raw)
	require.Error(t, err)
}

func TestTokenCacheFreshness(t *testing.T) {
	c := NewTokenCache(time.Minute)
	c.Put("fresh", StoredToken{AccessToken: "a", Expiry: time.Now().Add(time.Hour)})
	c.Put("stale", StoredToken{AccessToken: "b", Expiry: time.Now().Add(30 * time.Second)})
	c.Put("forever", StoredToken{AccessToken: "c"})

	_, ok := c.Get("fresh")
	require.True(t, ok)
	_, ok = c.Get("stale")
	require.False(t, ok)
	_, ok = c.Get("forever")
	require.True(t, ok)
	_, ok = c.Get("missing")
	require.False(t, ok)

	c.Delete("fresh")
	_, ok = c.Get("fresh")
	require.False(t, ok)
}

func TestTokenCacheRoundTripOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	c := NewTokenCache(0)
	c.Put("admin", StoredToken{AccessToken: "a", Expiry: time.Now().Add(time.Hour).Truncate(time.Second)})
	require.NoError(t, SaveTokenCache(path, c))

	loaded, err := LoadTokenCache(path, 0)
	require.NoError(t, err)
	tok, ok := loaded.Get("admin")
	require.True(t, ok)
	require.Equal(t, "a", tok.AccessToken)

	require.Error(t, SaveTokenCache(path, nil))
	_, err = LoadTokenCache(filepath.Join(t.TempDir(), "none.json"), 0)
	require.Error(t, err)
}

func TestParseClaims(t *testing.T) {
	iss := newTestIssuer(t)
	exp := time.Now().Add(time.Hour).Unix()
	raw := iss.sign(t, jwt.MapClaims{
		"sub":                "u1",
		"aud":                []interface{}{"fod-web", "api"},
		"scope":              "api-tenant view-apps",
		"preferred_username": "sso.user",
		"exp":                exp,
	})

	c, err := ParseClaims(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", c.Subject)
	require.Equal(t, iss.server.URL, c.Issuer)
	require.Equal(t, []string{"fod-web", "api"}, c.Audience)
	require.True(t, c.HasScope("view-apps"))
	require.False(t, c.HasScope("manage-apps"))
	require.Equal(t, "sso.user", c.PreferredUsername)
	require.Equal(t, exp, c.ExpiresAt.Unix())
	require.False(t, c.Expired(time.Now()))
	require.True(t, c.Expired(time.Now().Add(2*time.Hour)))

	_, err = ParseClaims("")
	require.Error(t, err)
	_, err = ParseClaims("not-a-jwt")
	require.Error(t, err)
}

func TestJWKSValidator(t *testing.T) {
	iss := newTestIssuer(t)
	v, err := NewJWKSValidator(iss.server.URL+"/jwks", iss.server.URL, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer v.Close()

	good := iss.sign(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	claims, err := v.Validate(context.Background(), good)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)

	expired := iss.sign(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err = v.Validate(context.Background(), expired)
	require.Error(t, err)

	foreign := iss.sign(t, jwt.MapClaims{"sub": "u1", "iss": "https://elsewhere", "exp": time.Now().Add(time.Hour).Unix()})
	_, err = v.Validate(context.Background(), foreign)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected issuer")

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"sub": "u1", "iss": iss.server.URL})
	tok.Header["kid"] = iss.kid
	forged, err := tok.SignedString(other)
	require.NoError(t, err)
	_, err = v.Validate(context.Background(), forged)
	require.Error(t, err)
}
