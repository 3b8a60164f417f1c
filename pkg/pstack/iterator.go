package pstack

// Iterator walks a stack from its top element toward the bottom without consuming it.
// Obtain a fresh one from Stack.Iter to start over.
type Iterator[T any] struct {
	cur *node[T]
}

// Next returns the current element and advances the cursor. Once the chain is exhausted it
// returns the zero value and false on every call.
func (it *Iterator[T]) Next() (T, bool) {
	if it.cur == nil {
		var zero T
		return zero, false
	}
	value := it.cur.value
	it.cur = it.cur.next
	return value, true
}
