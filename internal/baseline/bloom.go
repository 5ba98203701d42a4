package baseline

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Bloom counts distinct keys with a Bloom filter and a manual counter, since
// Bloom filters don't support cardinality estimation.
type Bloom struct {
	filter *bloom.BloomFilter
	count  int64
	mu     sync.RWMutex
}

// NewBloom creates a Bloom filter counter sized from cfg.
func NewBloom(cfg Config) *Bloom {
	return &Bloom{
		filter: bloom.NewWithEstimates(cfg.ExpectedItems, cfg.FalsePositiveRate),
	}
}

// Add tests membership and adds key if new.
// Due to false positives, Add may return false for a truly new key ~FPR% of the time.
func (c *Bloom) Add(key []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filter.TestAndAdd(key) {
		return false
	}
	c.count++
	return true
}

// Count returns the number of keys the filter reported as new.
func (c *Bloom) Count() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Reset clears the filter.
func (c *Bloom) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter.ClearAll()
	c.count = 0
}

// MemoryUsage returns the size of the bit array in bytes.
func (c *Bloom) MemoryUsage() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(c.filter.Cap()) / 8
}

// Kind returns KindBloom.
func (c *Bloom) Kind() Kind {
	return KindBloom
}
