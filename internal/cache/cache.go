// Package cache stores fetched detail and profile pages for runs that opt in.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for page caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Clear() error
}

// PageKey generates a cache key for a fetched page URL
func PageKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "cohortscan:page:v1:" + hex.EncodeToString(hash[:])
}
