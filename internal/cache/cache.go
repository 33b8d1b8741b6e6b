// Package cache stores solver outcomes so an identical re-run replays the
// identical placement instead of searching again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion is bumped whenever the cached payload layout changes
const keyVersion = "v1"

// Key generates a cache key from a namespace and the parts that identify
// the cached value. Parts are hashed, so they may be arbitrarily long.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "bunkhouse-" + namespace + "-" + keyVersion + "-" + hex.EncodeToString(hash[:])
}
