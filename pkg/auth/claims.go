package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims are the token fields scenarios assert on.
type Claims struct {
	Subject           string
	Issuer            string
	Audience          []string
	Scopes            []string
	PreferredUsername string
	Email             string
	ExpiresAt         time.Time
	IssuedAt          time.Time
}

// HasScope reports whether scope was granted.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Expired reports whether the token is past its expiry at now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes a JWT without verifying its signature.
func ParseClaims(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.New("token is empty")
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("malformed token: %w", err)
	}
	return claimsFrom(mc), nil
}

func claimsFrom(mc jwt.MapClaims) *Claims {
	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Issuer, _ = mc["iss"].(string)
	c.PreferredUsername, _ = mc["preferred_username"].(string)
	c.Email, _ = mc["email"].(string)
	switch aud := mc["aud"].(type) {
	case string:
		c.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				c.Audience = append(c.Audience, s)
			}
		}
	}
	// "scope" is space separated; some issuers send "scp" as a list
	if scope, ok := mc["scope"].(string); ok {
		c.Scopes = strings.Fields(scope)
	} else if scp, ok := mc["scp"].([]interface{}); ok {
		for _, s := range scp {
			if str, ok := s.(string); ok {
				c.Scopes = append(c.Scopes, str)
			}
		}
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if iat, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(iat), 0)
	}
	return c
}
