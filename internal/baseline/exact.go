package baseline

import (
	"sync"
)

// Exact uses a map for 100% accurate distinct counting.
type Exact struct {
	items map[string]struct{}
	bytes uint64
	mu    sync.RWMutex
}

// NewExact creates an exact counter.
func NewExact() *Exact {
	return &Exact{
		items: make(map[string]struct{}),
	}
}

// Add records key and returns true if it was new.
func (c *Exact) Add(key []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := string(key)
	if _, exists := c.items[k]; exists {
		return false
	}
	c.items[k] = struct{}{}
	c.bytes += uint64(len(k))
	return true
}

// Contains reports whether key has been added.
func (c *Exact) Contains(key []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.items[string(key)]
	return exists
}

// Count returns the number of distinct keys.
func (c *Exact) Count() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int64(len(c.items))
}

// Reset forgets every key.
func (c *Exact) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]struct{})
	c.bytes = 0
}

// MemoryUsage returns key bytes plus ~48 bytes of map overhead per entry.
func (c *Exact) MemoryUsage() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytes + uint64(len(c.items))*48
}

// Kind returns KindExact.
func (c *Exact) Kind() Kind {
	return KindExact
}
