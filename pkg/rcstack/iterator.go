package rcstack

// Iterator walks a stack from its top element toward the bottom without consuming it.
type Iterator[T any] struct {
	arena *Arena[T]
	cur   uint32
	gen   uint32
}

// Next returns the current element and advances the cursor. Once the chain is exhausted it
// returns the zero value and false on every call. It panics with ErrReleased if the node
// under the cursor was reclaimed since the cursor reached it.
func (it *Iterator[T]) Next() (T, bool) {
	var zero T
	if it.cur == absent {
		return zero, false
	}

	a := it.arena
	a.mu.Lock()
	defer a.mu.Unlock()

	sl := &a.slots[it.cur]
	if sl.gen != it.gen || sl.refs <= 0 {
		panic(ErrReleased)
	}

	value := sl.value
	it.cur = sl.next
	it.gen = a.slots[it.cur].gen
	return value, true
}
