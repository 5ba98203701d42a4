// Package intern deduplicates repeated strings so that a tokenized corpus keeps
// one copy of every distinct token.
package intern

import (
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Pool interns strings. It uses sync.Map for lock-free concurrent reads.
type Pool struct {
	strings sync.Map
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// NewPool creates a new intern pool.
func NewPool() *Pool {
	return &Pool{}
}

// Intern returns an interned copy of s.
// If s was seen before, returns the existing copy.
// Otherwise stores and returns a new copy, so s may alias a reusable buffer.
func (p *Pool) Intern(s string) string {
	if interned, ok := p.strings.Load(s); ok {
		p.hit()
		return interned.(string)
	}

	clone := strings.Clone(s)
	actual, loaded := p.strings.LoadOrStore(clone, clone)
	if loaded {
		p.hit()
	} else {
		p.miss()
	}
	return actual.(string)
}

// InternBytes interns a string from a byte slice without allocating
// an intermediate string for the lookup.
func (p *Pool) InternBytes(b []byte) string {
	return p.Intern(unsafeString(b))
}

func (p *Pool) hit() {
	p.hits.Add(1)
	internLookups.hit.Inc()
}

func (p *Pool) miss() {
	p.misses.Add(1)
	internLookups.miss.Inc()
}

// Stats returns hit/miss statistics.
func (p *Pool) Stats() (hits, misses uint64) {
	return p.hits.Load(), p.misses.Load()
}

// Size returns the number of interned strings.
func (p *Pool) Size() int {
	count := 0
	p.strings.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// Reset clears all interned strings and resets statistics.
func (p *Pool) Reset() {
	p.strings.Clear()
	p.hits.Store(0)
	p.misses.Store(0)
}

// unsafeString converts a byte slice to a string without allocation.
// The result is only used for lookups; Intern clones before storing.
func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
