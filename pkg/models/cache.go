package models

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// KeyCache is a concurrent-safe map pubkey --> nodeID, used to avoid querying
// the KeyIndex for pubkeys already resolved.
type KeyCache = *xsync.MapOf[string, uint64]

// NewKeyCache() returns an initialized KeyCache
func NewKeyCache() KeyCache {
	return xsync.NewMapOf[string, uint64]()
}

// ToMap returns a regular Go map with the same key-value pairs as the KeyCache.
// If the KeyCache is nil, it returns a nil map.
func ToMap(KC KeyCache) map[string]uint64 {
	if KC == nil {
		return nil
	}

	goMap := make(map[string]uint64, KC.Size())
	KC.Range(func(key string, value uint64) bool {
		goMap[key] = value
		return true
	})

	return goMap
}
