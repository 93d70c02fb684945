// Package auth holds the API key used against the FNE API together with a
// small response cache tied to that key.
package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/prodestic/fne-sdk-go/internal/model"
)

// MinAPIKeyLength is the shortest key accepted by ValidateAPIKey
const MinAPIKeyLength = 20

// TokenManager owns the API key. Changing the key drops every cached
// response.
type TokenManager struct {
	mu     sync.RWMutex
	apiKey string
	cache  *responseCache
}

// Option configures a TokenManager
type Option func(*TokenManager)

// WithClock replaces time.Now for cache expiry
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) {
		m.cache.now = now
	}
}

func NewTokenManager(apiKey string, opts ...Option) *TokenManager {
	m := &TokenManager{
		apiKey: strings.TrimSpace(apiKey),
		cache:  newResponseCache(time.Now),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAPIKey replaces the key and invalidates the cache
func (m *TokenManager) SetAPIKey(apiKey string) {
	m.mu.Lock()
	m.apiKey = strings.TrimSpace(apiKey)
	m.mu.Unlock()
	m.cache.clear()
}

// APIKey returns the key or an *model.AuthenticationError when none is set
func (m *TokenManager) APIKey() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.apiKey == "" {
		return "", model.NewInvalidAPIKeyError()
	}
	return m.apiKey, nil
}

func (m *TokenManager) HasAPIKey() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKey != ""
}

// BearerToken returns the raw key; empty when unset
func (m *TokenManager) BearerToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.apiKey
}

// AuthorizationHeader returns "Bearer <key>"
func (m *TokenManager) AuthorizationHeader() (string, error) {
	key, err := m.APIKey()
	if err != nil {
		return "", err
	}
	return "Bearer " + key, nil
}

// ValidateAPIKey fails when the key is missing or shorter than
// MinAPIKeyLength. No network call is made.
func (m *TokenManager) ValidateAPIKey() error {
	key, err := m.APIKey()
	if err != nil {
		return err
	}
	if len(key) < MinAPIKeyLength {
		return model.NewInvalidAPIKeyError()
	}
	return nil
}

// CacheResponse stores data under key for ttl (DefaultCacheTTL when zero)
func (m *TokenManager) CacheResponse(key string, data map[string]any, ttl time.Duration) {
	m.cache.set(key, data, ttl)
}

// CachedResponse returns a live cache entry
func (m *TokenManager) CachedResponse(key string) (map[string]any, bool) {
	return m.cache.get(key)
}

// ClearCache removes the given keys, or everything when none is given
func (m *TokenManager) ClearCache(keys ...string) {
	if len(keys) == 0 {
		m.cache.clear()
		return
	}
	m.cache.delete(keys...)
}

// CacheSize returns the number of stored entries, expired ones included
func (m *TokenManager) CacheSize() int {
	return m.cache.size()
}
