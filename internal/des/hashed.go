package des

import (
	"iter"

	"github.com/cespare/xxhash/v2"
)

// HashStrings maps every string of seq to its 64-bit xxhash digest, so the
// witness set stores fixed-size keys instead of the strings themselves.
// Digest collisions merge distinct strings; at 64 bits this is negligible
// below billions of distinct items.
func HashStrings(seq iter.Seq[string]) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for s := range seq {
			if !yield(xxhash.Sum64String(s)) {
				return
			}
		}
	}
}

// HashBytes is HashStrings for byte slices.
func HashBytes(seq iter.Seq[[]byte]) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for b := range seq {
			if !yield(xxhash.Sum64(b)) {
				return
			}
		}
	}
}
