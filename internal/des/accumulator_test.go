package des

import (
	"slices"
	"testing"
)

func TestAccumulator_AddRemove(t *testing.T) {
	a := newAccumulator[string]()

	a.Add("a")
	a.Add("b")
	a.Add("c")
	a.Add("a")

	if a.Len() != 3 {
		t.Fatalf("expected 3 witnesses, got %d", a.Len())
	}
	if !a.Contains("b") {
		t.Error("expected b to be a witness")
	}

	if !a.Remove("a") {
		t.Error("Remove should report a present item")
	}
	if a.Remove("a") {
		t.Error("Remove should report a missing item")
	}
	// c moved into a's slot
	if got := a.Items(); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("unexpected order after swap-remove: %v", got)
	}
	if a.Contains("a") {
		t.Error("a should be gone")
	}
}

func TestAccumulator_RemoveLast(t *testing.T) {
	a := newAccumulator[int]()
	a.Add(1)
	a.Add(2)
	a.Remove(2)
	a.Add(3)

	if got := a.Items(); !slices.Equal(got, []int{1, 3}) {
		t.Errorf("unexpected items: %v", got)
	}
	if !a.Contains(3) || a.Contains(2) {
		t.Error("index out of sync after removing the last witness")
	}
}

func TestAccumulator_RetainIsStable(t *testing.T) {
	a := newAccumulator[int]()
	for i := 0; i < 10; i++ {
		a.Add(i)
	}

	var visited []int
	a.Retain(func(v int) bool {
		visited = append(visited, v)
		return v%3 == 0
	})

	if !slices.Equal(visited, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}) {
		t.Errorf("Retain must visit every witness in order, visited %v", visited)
	}
	if got := a.Items(); !slices.Equal(got, []int{0, 3, 6, 9}) {
		t.Errorf("unexpected survivors: %v", got)
	}
	for _, v := range []int{0, 3, 6, 9} {
		if !a.Contains(v) {
			t.Errorf("survivor %d missing from index", v)
		}
	}
	for _, v := range []int{1, 2, 4, 5, 7, 8} {
		if a.Contains(v) {
			t.Errorf("dropped witness %d still indexed", v)
		}
	}

	// Index must point at the compacted slots.
	a.Remove(3)
	if got := a.Items(); !slices.Equal(got, []int{0, 9, 6}) {
		t.Errorf("unexpected items after remove: %v", got)
	}
}

func TestAccumulator_Clear(t *testing.T) {
	a := newAccumulator[string]()
	a.Add("x")
	a.Add("y")
	a.Clear()

	if a.Len() != 0 || a.Contains("x") {
		t.Error("Clear should drop every witness")
	}
	a.Add("x")
	if a.Len() != 1 {
		t.Errorf("expected 1 witness after re-add, got %d", a.Len())
	}
}
