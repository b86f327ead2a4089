package text

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TokenCache caches normalized token sequences keyed by a hash of the raw
// text, so repeated runs over the same corpus skip re-normalization.
type TokenCache struct {
	cache *gocache.Cache
}

// NewTokenCache creates a token cache with the given TTL
func NewTokenCache(defaultTTL, cleanupInterval time.Duration) *TokenCache {
	return &TokenCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves the cached token sequence for a text
func (c *TokenCache) Get(text string) ([]string, bool) {
	if val, found := c.cache.Get(cacheKey(text)); found {
		return val.([]string), true
	}
	return nil, false
}

// Set stores a token sequence with the default TTL
func (c *TokenCache) Set(text string, tokens []string) {
	c.cache.Set(cacheKey(text), tokens, gocache.DefaultExpiration)
}

// Clear removes all cached sequences
func (c *TokenCache) Clear() {
	c.cache.Flush()
}

// cacheKey hashes the raw text into a stable cache key
func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "stancer:v1:" + hex.EncodeToString(hash[:])
}
