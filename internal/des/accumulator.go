package des

// accumulator is a set with O(1) membership that iterates in a deterministic
// order. Go map iteration is randomized, and down-sampling draws one random
// value per witness in iteration order, so the witnesses live in a dense slice
// and the map only indexes into it.
type accumulator[T comparable] struct {
	index map[T]int
	items []T
}

func newAccumulator[T comparable]() *accumulator[T] {
	return &accumulator[T]{
		index: make(map[T]int),
	}
}

// Len returns the number of witnesses.
func (a *accumulator[T]) Len() int {
	return len(a.items)
}

// Contains reports whether v is a witness.
func (a *accumulator[T]) Contains(v T) bool {
	_, ok := a.index[v]
	return ok
}

// Add inserts v if it is not already present.
func (a *accumulator[T]) Add(v T) {
	if _, ok := a.index[v]; ok {
		return
	}
	a.index[v] = len(a.items)
	a.items = append(a.items, v)
}

// Remove deletes v by moving the last witness into its slot.
// Returns true if v was present.
func (a *accumulator[T]) Remove(v T) bool {
	i, ok := a.index[v]
	if !ok {
		return false
	}
	delete(a.index, v)

	last := len(a.items) - 1
	if i != last {
		moved := a.items[last]
		a.items[i] = moved
		a.index[moved] = i
	}
	var zero T
	a.items[last] = zero
	a.items = a.items[:last]
	return true
}

// Retain calls keep once per witness, in order, and drops the witnesses for
// which it returns false. Survivors keep their relative order.
func (a *accumulator[T]) Retain(keep func(T) bool) {
	n := 0
	for _, v := range a.items {
		if !keep(v) {
			delete(a.index, v)
			continue
		}
		a.items[n] = v
		a.index[v] = n
		n++
	}
	clear(a.items[n:])
	a.items = a.items[:n]
}

// Clear drops every witness.
func (a *accumulator[T]) Clear() {
	clear(a.index)
	clear(a.items)
	a.items = a.items[:0]
}

// Items returns a copy of the witnesses in iteration order.
func (a *accumulator[T]) Items() []T {
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
