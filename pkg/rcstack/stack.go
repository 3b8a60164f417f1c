package rcstack

import (
	"iter"

	"go.uber.org/zap"
)

// Stack is a handle on a persistent stack stored in an Arena. It owns one reference to its
// top node until Release is called.
//
// Prepend, Tail and Clone never modify the receiver: each returns a new handle, which the
// caller must release independently. Using a handle after releasing it panics with
// ErrReleased.
type Stack[T any] struct {
	arena    *Arena[T]
	head     uint32
	released bool
}

func (s *Stack[T]) mustBeLive() {
	if s.released {
		panic(ErrReleased)
	}
}

// Prepend returns a new stack with value on top of s. The new node takes a reference to the
// top node of s.
func (s *Stack[T]) Prepend(value T) *Stack[T] {
	s.mustBeLive()
	a := s.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.alloc(value, s.head)
	a.retain(s.head)
	return &Stack[T]{arena: a, head: idx}
}

// Head returns the top element. The boolean is false when the stack is empty.
func (s *Stack[T]) Head() (T, bool) {
	s.mustBeLive()
	a := s.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	if s.head == absent {
		var zero T
		return zero, false
	}
	return a.slots[s.head].value, true
}

// Tail returns a new handle on the stack below the top element, taking a reference to it.
// The tail of the empty stack is the empty stack.
func (s *Stack[T]) Tail() *Stack[T] {
	s.mustBeLive()
	a := s.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	if s.head == absent {
		return &Stack[T]{arena: a}
	}
	next := a.slots[s.head].next
	a.retain(next)
	return &Stack[T]{arena: a, head: next}
}

// Clone returns a new handle on the same stack.
func (s *Stack[T]) Clone() *Stack[T] {
	s.mustBeLive()
	a := s.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	a.retain(s.head)
	return &Stack[T]{arena: a, head: s.head}
}

func (s *Stack[T]) IsEmpty() bool {
	s.mustBeLive()
	return s.head == absent
}

// Iter returns a cursor positioned on the top element. The iterator does not hold a
// reference: the nodes it has yet to visit must stay referenced by some live stack while
// it is in use.
func (s *Stack[T]) Iter() *Iterator[T] {
	s.mustBeLive()
	a := s.arena

	a.mu.Lock()
	defer a.mu.Unlock()

	return &Iterator[T]{arena: a, cur: s.head, gen: a.slots[s.head].gen}
}

// All returns an iter.Seq[T] of the elements from top to bottom.
func (s *Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		it := s.Iter()
		for {
			v, ok := it.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Release drops the reference s holds. Nodes no longer referenced by any stack or node are
// reclaimed before Release returns. The release hook, if any, is called for each of them
// once the arena is unlocked.
func (s *Stack[T]) Release() {
	s.mustBeLive()
	s.released = true
	a := s.arena

	reclaimed, values := a.release(s.head)

	nodesReleasedCounter.Add(float64(reclaimed))
	releaseChainLengthHistogram.Observe(float64(reclaimed))
	if reclaimed > 0 {
		a.logger.Debug("released stack", zap.Int("reclaimed", reclaimed))
	}

	for _, v := range values {
		a.onRelease(v)
	}
}
