// Package scorecache holds precomputed ranking scores so repeated sampling
// requests with the same ranking parameters skip source aggregation. A cache
// is always optional: absence and storage failures alike mean "compute and
// optionally populate", never a sampling error.
package scorecache

import "sync"

// Store is the cache contract. Get reports a miss with ok=false; Put is
// best-effort and may silently drop the entry.
type Store interface {
	Get(key string) (score float64, ok bool)
	Put(key string, score float64)
}

// Memory is a process-local Store. Concurrent population of the same missing
// key duplicates work harmlessly; the last write wins whole, never partially.
type Memory struct {
	mu sync.RWMutex
	m  map[string]float64
}

// NewMemory returns an empty in-memory score cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]float64)}
}

// Get looks a score up.
func (c *Memory) Get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.m[key]
	return s, ok
}

// Put stores a score, overwriting any previous value.
func (c *Memory) Put(key string, score float64) {
	c.mu.Lock()
	c.m[key] = score
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
