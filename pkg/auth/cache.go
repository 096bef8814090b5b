package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultExpiryMargin is how long before expiry a cached token is considered stale.
const DefaultExpiryMargin = 2 * time.Minute

type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
}

// Fresh reports whether the token stays valid for at least margin.
func (t StoredToken) Fresh(margin time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || time.Until(t.Expiry) > margin
}

// TokenCache keeps one token per user. It is safe for concurrent use.
type TokenCache struct {
	Tokens map[string]StoredToken `json:"tokens"`

	mu     sync.Mutex
	margin time.Duration
}

func NewTokenCache(margin time.Duration) *TokenCache {
	if margin <= 0 {
		margin = DefaultExpiryMargin
	}
	return &TokenCache{Tokens: map[string]StoredToken{}, margin: margin}
}

// Get returns the cached token of user if it is still fresh.
func (c *TokenCache) Get(user string) (StoredToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tok, ok := c.Tokens[user]
	if !ok || !tok.Fresh(c.margin) {
		return StoredToken{}, false
	}
	return tok, true
}

func (c *TokenCache) Put(user string, tok StoredToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Tokens == nil {
		c.Tokens = map[string]StoredToken{}
	}
	c.Tokens[user] = tok
}

func (c *TokenCache) Delete(user string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Tokens, user)
}

// LoadTokenCache reads a cache written by SaveTokenCache.
func LoadTokenCache(path string, margin time.Duration) (*TokenCache, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cache := NewTokenCache(margin)
	if err := json.Unmarshal(content, cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]StoredToken{}
	}
	return cache, nil
}

func SaveTokenCache(path string, cache *TokenCache) error {
	if cache == nil {
		return errors.New("token cache is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	cache.mu.Lock()
	content, err := json.MarshalIndent(cache, "", "  ")
	cache.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}
