package cache

import (
	"errors"
	"time"
)

// Tiered consults its tiers fastest first and copies a hit into every faster tier
type Tiered struct {
	tiers []Cache
}

// NewTiered stacks tiers, fastest first
func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

// NewLayeredCache puts an in-process cache in front of an on-disk one
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *Tiered {
	return NewTiered(NewMemoryCache(memoryTTL, 10*time.Minute), NewDiskCache(diskDir, diskTTL))
}

// Get returns the value from the first tier holding it
func (c *Tiered) Get(key string) ([]byte, bool) {
	for i, tier := range c.tiers {
		val, ok := tier.Get(key)
		if !ok {
			continue
		}
		for _, faster := range c.tiers[:i] {
			_ = faster.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set writes through to every tier
func (c *Tiered) Set(key string, value []byte, ttl time.Duration) error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Set(key, value, ttl))
	}
	return errors.Join(errs...)
}

// Delete removes key from every tier
func (c *Tiered) Delete(key string) error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Delete(key))
	}
	return errors.Join(errs...)
}

// Clear empties every tier
func (c *Tiered) Clear() error {
	var errs []error
	for _, tier := range c.tiers {
		errs = append(errs, tier.Clear())
	}
	return errors.Join(errs...)
}
