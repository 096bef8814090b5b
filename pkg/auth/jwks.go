package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// JWKSValidator verifies token signatures against a JWKS endpoint.
type JWKSValidator struct {
	jwks   *keyfunc.JWKS
	issuer string
	log    *zap.SugaredLogger
}

// NewJWKSValidator fetches the key set at url. When issuer is set, tokens of
// other issuers are rejected. client may be nil.
func NewJWKSValidator(url, issuer string, client *http.Client, log *zap.SugaredLogger) (*JWKSValidator, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	options := keyfunc.Options{
		Client:          client,
		RefreshInterval: time.Hour,
		RefreshTimeout:  10 * time.Second,
		RefreshErrorHandler: func(err error) {
			log.Warnf("failed to refresh JWKS from %s: %v", url, err)
		},
	}
	jwks, err := keyfunc.Get(url, options)
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", url, err)
	}
	return &JWKSValidator{jwks: jwks, issuer: issuer, log: log}, nil
}

// Validate verifies the signature and standard time claims of raw and returns
// its claims. An unknown key id triggers one refresh of the key set.
func (v *JWKSValidator) Validate(ctx context.Context, raw string) (*Claims, error) {
	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, &mc, v.jwks.Keyfunc)
	if err != nil && strings.Contains(err.Error(), "key ID") {
		v.log.Debugw("unknown key id, refreshing JWKS")
		if rErr := v.jwks.Refresh(ctx, keyfunc.RefreshOptions{IgnoreRateLimit: true}); rErr == nil {
			mc = jwt.MapClaims{}
			_, err = jwt.ParseWithClaims(raw, &mc, v.jwks.Keyfunc)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims := claimsFrom(mc)
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, errors.New("invalid token: unexpected issuer " + claims.Issuer)
	}
	return claims, nil
}

// Close stops the background refresh.
func (v *JWKSValidator) Close() {
	v.jwks.EndBackground()
}
