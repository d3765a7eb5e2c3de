package scheduling

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// AvailabilityCache memoizes computed availability per filter. The contract
// is read-through: a hit is returned verbatim, a miss triggers recomputation,
// and every availability-changing write clears the whole cache. There is no
// per-key invalidation; a missed InvalidateAll call would serve stale data,
// so every mutating path in Service must call it.
type AvailabilityCache interface {
	Get(ctx context.Context, key string) ([]AvailableSlot, bool)
	Put(ctx context.Context, key string, slots []AvailableSlot)
	InvalidateAll(ctx context.Context)
}

// CacheKey derives the cache key for an availability query: one key per
// doctor filter plus a sentinel key for the unfiltered listing.
func CacheKey(doctorFilter *uuid.UUID) string {
	if doctorFilter == nil {
		return "slots_all"
	}
	return "slots_" + doctorFilter.String()
}

// MemoryCache is a process-local AvailabilityCache. Unbounded: the key space
// is one key per doctor plus the all-doctors key, and the whole map is
// cleared on every write anyway.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]AvailableSlot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string][]AvailableSlot),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]AvailableSlot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slots, ok := c.entries[key]
	return slots, ok
}

func (c *MemoryCache) Put(_ context.Context, key string, slots []AvailableSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = slots
}

func (c *MemoryCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string][]AvailableSlot)
}
