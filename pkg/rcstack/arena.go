package rcstack

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/openfga/pstack/pkg/logger"
)

// ErrReleased is the panic value raised when a stack handle is used, or released again,
// after it has been released.
var ErrReleased = errors.New("rcstack: stack handle used after release")

// absent is the slot index standing for "no node". Slot 0 of every arena is never handed out.
const absent uint32 = 0

type slot[T any] struct {
	value T
	next  uint32
	refs  int32

	// gen is bumped every time the slot is reclaimed so that iterators holding an index into
	// a reclaimed slot can tell.
	gen uint32
}

// Stats is a snapshot of the bookkeeping of an Arena.
type Stats struct {
	// Live is the number of slots holding a node with a positive reference count.
	Live int
	// Free is the number of reclaimed slots waiting to be reused.
	Free int
	// Capacity is the number of slots ever handed out, live or free.
	Capacity int
	// Allocated and Released count nodes over the lifetime of the arena.
	Allocated uint64
	Released  uint64
}

// Arena owns the nodes of every stack derived from it.
type Arena[T any] struct {
	mu        sync.Locker
	slots     []slot[T]
	free      []uint32
	allocated uint64
	released  uint64
	onRelease func(T)
	logger    logger.Logger
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// NewArena returns an empty arena. It panics if a release hook registered with
// WithReleaseHook does not accept T.
func NewArena[T any](opts ...ArenaOption) *Arena[T] {
	cfg := &arenaConfig{
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	a := &Arena[T]{
		mu:     noopLocker{},
		slots:  make([]slot[T], 1, max(cfg.capacity, 0)+1),
		logger: cfg.logger,
	}
	if cfg.concurrent {
		a.mu = &sync.Mutex{}
	}
	if cfg.releaseHook != nil {
		hook, ok := cfg.releaseHook.(func(T))
		if !ok {
			var zero T
			panic(fmt.Sprintf("rcstack: release hook of type %T does not accept %T", cfg.releaseHook, zero))
		}
		a.onRelease = hook
	}
	return a
}

// Empty returns a handle on the empty stack. It holds no reference; releasing it only
// invalidates the handle.
func (a *Arena[T]) Empty() *Stack[T] {
	return &Stack[T]{arena: a}
}

func (a *Arena[T]) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Stats{
		Live:      len(a.slots) - 1 - len(a.free),
		Free:      len(a.free),
		Capacity:  len(a.slots) - 1,
		Allocated: a.allocated,
		Released:  a.released,
	}
}

// RefCount returns the reference count of the top node of s, or 0 when s is empty. It
// panics if s belongs to another arena.
func (a *Arena[T]) RefCount(s *Stack[T]) int {
	s.mustBeLive()
	if s.arena != a {
		panic("rcstack: stack belongs to another arena")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if s.head == absent {
		return 0
	}
	return int(a.slots[s.head].refs)
}

// alloc stores a new node owning one reference, held by the caller. It does not touch the
// count of next. The caller must hold the lock.
func (a *Arena[T]) alloc(value T, next uint32) uint32 {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if len(a.slots) == cap(a.slots) {
			a.logger.Debug("growing arena slot table", zap.Int("capacity", cap(a.slots)))
		}
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	sl := &a.slots[idx]
	sl.value = value
	sl.next = next
	sl.refs = 1
	a.allocated++
	nodesAllocatedCounter.Inc()
	return idx
}

// retain adds one reference to the node at idx. The caller must hold the lock.
func (a *Arena[T]) retain(idx uint32) {
	if idx != absent {
		a.slots[idx].refs++
	}
}

// release drops one reference to the node at idx and reclaims every node whose count
// reaches zero as a consequence. It returns the number of reclaimed nodes and, when a
// release hook is registered, their elements in reclamation order.
func (a *Arena[T]) release(idx uint32) (int, []T) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var (
		reclaimed int
		values    []T
	)
	for idx != absent {
		sl := &a.slots[idx]
		sl.refs--
		if sl.refs > 0 {
			break
		}

		if a.onRelease != nil {
			values = append(values, sl.value)
		}
		next := sl.next
		var zero T
		sl.value = zero
		sl.next = absent
		sl.gen++
		a.free = append(a.free, idx)
		reclaimed++
		idx = next
	}

	a.released += uint64(reclaimed)
	return reclaimed, values
}
