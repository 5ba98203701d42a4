// Package baseline provides reference distinct counters that the estimator is
// compared against: an exact set, a HyperLogLog sketch and a Bloom filter with
// a manual counter.
package baseline

import (
	"fmt"
	"iter"
	"strings"
)

// Kind identifies a counter implementation.
type Kind string

const (
	// KindExact keeps every distinct key. Its count is the ground truth.
	KindExact Kind = "exact"
	// KindHLL uses a fixed-size HyperLogLog sketch.
	KindHLL Kind = "hll"
	// KindBloom counts keys that a Bloom filter has not seen yet.
	// May undercount due to false positives.
	KindBloom Kind = "bloom"
)

// ParseKind parses a counter name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindExact:
		return KindExact, nil
	case KindHLL:
		return KindHLL, nil
	case KindBloom:
		return KindBloom, nil
	default:
		return "", fmt.Errorf("unknown baseline counter: %q", s)
	}
}

// Counter counts distinct keys.
type Counter interface {
	// Add records key. Returns true if the key was new (HLL always returns true).
	Add(key []byte) bool

	// Count returns the number of distinct keys seen.
	Count() int64

	// Reset forgets every key.
	Reset()

	// MemoryUsage returns approximate memory usage in bytes.
	MemoryUsage() uint64

	// Kind returns the implementation kind.
	Kind() Kind
}

// Config holds sizing for probabilistic counters.
type Config struct {
	// ExpectedItems sizes the Bloom filter.
	ExpectedItems uint

	// FalsePositiveRate is the target Bloom filter false positive rate.
	FalsePositiveRate float64
}

// DefaultConfig returns defaults suited to word-level text corpora.
func DefaultConfig() Config {
	return Config{
		ExpectedItems:     100000,
		FalsePositiveRate: 0.01,
	}
}

// New creates a counter of the given kind.
func New(kind Kind, cfg Config) (Counter, error) {
	switch kind {
	case KindExact:
		return NewExact(), nil
	case KindHLL:
		return NewHLL(), nil
	case KindBloom:
		return NewBloom(cfg), nil
	default:
		return nil, fmt.Errorf("unknown baseline counter: %q", kind)
	}
}

// Result is the outcome of one counter over a stream.
type Result struct {
	Kind        Kind   `json:"kind"`
	Count       int64  `json:"count"`
	MemoryBytes uint64 `json:"memory_bytes"`
}

// CountStrings feeds every string in seq to each counter and returns their
// results in the order given.
func CountStrings(seq iter.Seq[string], counters ...Counter) []Result {
	for s := range seq {
		key := []byte(s)
		for _, c := range counters {
			c.Add(key)
		}
	}

	results := make([]Result, 0, len(counters))
	for _, c := range counters {
		results = append(results, Result{
			Kind:        c.Kind(),
			Count:       c.Count(),
			MemoryBytes: c.MemoryUsage(),
		})
	}
	return results
}
