package intern

import (
	"fmt"
	"sync"
	"testing"
)

func TestRace_Pool_ConcurrentIntern(t *testing.T) {
	pool := NewPool()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 2000; j++ {
				pool.Intern(fmt.Sprintf("token-%d", j%100))
				_ = pool.Size()
			}
		}(i)
	}
	wg.Wait()

	// All goroutines interning the same keys converge on one copy each
	if pool.Size() != 100 {
		t.Errorf("expected 100 interned strings, got %d", pool.Size())
	}
	hits, misses := pool.Stats()
	if hits+misses != 16000 {
		t.Errorf("expected 16000 lookups, got %d", hits+misses)
	}
	if misses != 100 {
		t.Errorf("expected 100 misses, got %d", misses)
	}
}

func TestRace_Pool_ConcurrentInternBytes(t *testing.T) {
	pool := NewPool()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			buf := make([]byte, 0, 32)
			for j := 0; j < 2000; j++ {
				buf = fmt.Appendf(buf[:0], "bytes-%d-%d", id, j%50)
				pool.InternBytes(buf)
			}
		}(i)
	}
	wg.Wait()

	if pool.Size() != 400 {
		t.Errorf("expected 400 interned strings, got %d", pool.Size())
	}
}
