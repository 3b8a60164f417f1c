package pstack

import (
	"fmt"
	"iter"
	"strings"
)

// node is an immutable cell of the list. Once linked, neither field is ever written again,
// which is what allows any number of stacks to share it.
type node[T any] struct {
	value T
	next  *node[T]
}

// Stack is a persistent stack based on a linked list.
//
// *Important*: Prepend and Tail never modify the receiver. Each of them returns a new stack
// that shares the remainder of the list with the stack it was derived from, so any Stack
// value obtained earlier stays valid and unchanged.
//
// The zero value is the empty stack.
type Stack[T any] struct {
	head *node[T]
}

// New returns the empty stack.
func New[T any]() Stack[T] {
	return Stack[T]{}
}

// From returns a stack whose head is items[0], followed by the rest of items in order.
func From[T any](items ...T) Stack[T] {
	var s Stack[T]
	for i := len(items) - 1; i >= 0; i-- {
		s = s.Prepend(items[i])
	}
	return s
}

// Prepend returns a new stack with value on top of s. It allocates exactly one node.
func (s Stack[T]) Prepend(value T) Stack[T] {
	return Stack[T]{head: &node[T]{value: value, next: s.head}}
}

// Head returns the top element. The boolean is false when the stack is empty.
func (s Stack[T]) Head() (T, bool) {
	if s.head == nil {
		var zero T
		return zero, false
	}
	return s.head.value, true
}

// Tail returns the stack below the top element. The tail of the empty stack is the empty stack.
func (s Stack[T]) Tail() Stack[T] {
	if s.head == nil {
		return s
	}
	return Stack[T]{head: s.head.next}
}

func (s Stack[T]) IsEmpty() bool {
	return s.head == nil
}

// Len walks the whole chain.
func (s Stack[T]) Len() int {
	var n int
	for cur := s.head; cur != nil; cur = cur.next {
		n++
	}
	return n
}

// Iter returns a cursor positioned on the top element.
func (s Stack[T]) Iter() *Iterator[T] {
	return &Iterator[T]{cur: s.head}
}

// All returns an iter.Seq[T] of the elements from top to bottom.
func (s Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for cur := s.head; cur != nil; cur = cur.next {
			if !yield(cur.value) {
				return
			}
		}
	}
}

// SharesTail reports how many trailing nodes a and b have in common. Two stacks share a
// node only when one was derived from the other or both from a common ancestor; equal
// values in distinct nodes do not count.
func SharesTail[T any](a, b Stack[T]) int {
	la, lb := a.Len(), b.Len()
	x, y := a.head, b.head
	for ; la > lb; la-- {
		x = x.next
	}
	for ; lb > la; lb-- {
		y = y.next
	}
	for x != y {
		x, y = x.next, y.next
		la--
	}
	return la
}

func (s Stack[T]) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for cur := s.head; cur != nil; cur = cur.next {
		if cur != s.head {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, cur.value)
	}
	b.WriteByte(')')
	return b.String()
}
