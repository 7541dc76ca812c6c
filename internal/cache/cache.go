// Package cache stores model responses so reruns on the same day do not pay twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/paperdigest/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a namespace and ordered parts.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return "paperdigest:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg; a disabled cache stores nothing
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	return NewLayeredCache(time.Hour, cfg.Dir, cfg.TTL())
}

// Noop is a cache that never hits
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)               { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error                     { return nil }
func (Noop) Clear() error                            { return nil }
