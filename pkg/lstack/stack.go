// Package lstack provides a non-thread-safe mutable stack with a single owner per node.
//
// It is the ephemeral counterpart of package pstack: Push and Pop modify the stack in
// place and no two stacks ever share a node.
package lstack

import "iter"

// Stack is a non-thread-safe LIFO stack. A zero value Stack can be used without
// initialization.
type Stack[T any] struct {
	top  *node[T]
	size int
}

type node[T any] struct {
	value T
	next  *node[T]
}

// New creates a stack.
func New[T any]() *Stack[T] {
	return &Stack[T]{}
}

// Len returns the stack size.
func (st *Stack[T]) Len() int {
	return st.size
}

// Push pushes an element onto the stack.
func (st *Stack[T]) Push(value T) {
	st.top = &node[T]{
		value: value,
		next:  st.top,
	}
	st.size++
}

// Pop pops an element from the stack.
func (st *Stack[T]) Pop() (T, bool) {
	if st.top == nil {
		var zero T
		return zero, false
	}
	top := st.top
	st.top = top.next
	top.next = nil
	st.size--
	return top.value, true
}

// Peek looks at the top element of the stack.
func (st *Stack[T]) Peek() (T, bool) {
	if st.top == nil {
		var zero T
		return zero, false
	}
	return st.top.value, true
}

// PeekMut returns a pointer to the top element so that it can be modified in place, or nil
// when the stack is empty. The pointer is valid until the element is popped.
func (st *Stack[T]) PeekMut() *T {
	if st.top == nil {
		return nil
	}
	return &st.top.value
}

// Clear removes every element, unlinking the nodes one at a time.
func (st *Stack[T]) Clear() {
	cur := st.top
	for cur != nil {
		next := cur.next
		cur.next = nil
		cur = next
	}
	st.top = nil
	st.size = 0
}

// Iter returns a cursor over the elements from top to bottom. The stack must not be
// modified while the cursor is in use.
func (st *Stack[T]) Iter() *Iterator[T] {
	return &Iterator[T]{cur: st.top}
}

// All returns an iter.Seq[T] of the elements from top to bottom, leaving the stack as is.
func (st *Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for cur := st.top; cur != nil; cur = cur.next {
			if !yield(cur.value) {
				return
			}
		}
	}
}

// Drain returns an iter.Seq[T] that pops each element as it is yielded. Stopping early
// leaves the remaining elements on the stack.
func (st *Stack[T]) Drain() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := st.Pop()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Iterator walks a Stack from top to bottom.
type Iterator[T any] struct {
	cur *node[T]
}

// Next returns the current element and advances the cursor.
func (it *Iterator[T]) Next() (T, bool) {
	if it.cur == nil {
		var zero T
		return zero, false
	}
	value := it.cur.value
	it.cur = it.cur.next
	return value, true
}
