package rcstack

import (
	"github.com/openfga/pstack/pkg/logger"
)

type arenaConfig struct {
	concurrent  bool
	capacity    int
	logger      logger.Logger
	releaseHook any
}

// ArenaOption configures an Arena built by NewArena.
type ArenaOption func(c *arenaConfig)

// WithConcurrentSafety serializes every count update, allocation and release behind a mutex
// so that stacks of the arena may be used from several goroutines.
func WithConcurrentSafety() ArenaOption {
	return func(c *arenaConfig) {
		c.concurrent = true
	}
}

// WithInitialCapacity preallocates room for n nodes.
func WithInitialCapacity(n int) ArenaOption {
	return func(c *arenaConfig) {
		c.capacity = n
	}
}

func WithLogger(l logger.Logger) ArenaOption {
	return func(c *arenaConfig) {
		c.logger = l
	}
}

// WithReleaseHook registers fn to be called with the element of every node reclaimed by a
// Release, in reclamation order. fn runs after the slots are back on the free list and the
// arena is unlocked, so it may use the arena. If fn panics, the remaining calls for that
// Release are skipped but the reclamation itself is complete.
// The element type of fn must match the element type of the arena.
func WithReleaseHook[T any](fn func(T)) ArenaOption {
	return func(c *arenaConfig) {
		c.releaseHook = fn
	}
}
