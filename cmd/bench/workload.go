package bench

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/openfga/pstack/internal/concurrency"
	"github.com/openfga/pstack/internal/config"
	"github.com/openfga/pstack/pkg/logger"
	"github.com/openfga/pstack/pkg/pstack"
	"github.com/openfga/pstack/pkg/rcstack"
)

var (
	ErrShortRead = errors.New("version yielded fewer elements than expected")
	ErrLeak      = errors.New("nodes still live after releasing every version")
)

// Timing reports how long one rendition took to build and read every version.
type Timing struct {
	Build time.Duration
	Read  time.Duration
}

type Report struct {
	// Visited is the number of elements read per rendition.
	Visited int

	GC    Timing
	Arena Timing

	// ArenaStats is taken after every arena version was released.
	ArenaStats rcstack.Stats
}

// Run builds a chain of cfg.Depth elements, derives cfg.Versions stacks from it by prepending
// one element each, and reads every version to the bottom with at most cfg.Workers
// goroutines. It does so once with garbage-collected stacks and once with a reference-counted
// arena, which is checked to be empty afterwards.
func Run(ctx context.Context, cfg config.BenchConfig, arenaCfg config.ArenaConfig, l logger.Logger) (*Report, error) {
	report := &Report{Visited: cfg.Versions * (cfg.Depth + 1)}

	gc, err := runGC(ctx, cfg)
	if err != nil {
		return nil, err
	}
	report.GC = gc
	l.Info("gc stacks done", zap.Duration("build", gc.Build), zap.Duration("read", gc.Read))

	arena := rcstack.NewArena[int](
		rcstack.WithConcurrentSafety(),
		rcstack.WithInitialCapacity(max(arenaCfg.InitialCapacity, cfg.Depth+cfg.Versions)),
		rcstack.WithLogger(l),
	)
	rc, err := runArena(ctx, cfg, arena)
	if err != nil {
		return nil, err
	}
	report.Arena = rc
	report.ArenaStats = arena.Stats()
	l.Info("arena stacks done", zap.Duration("build", rc.Build), zap.Duration("read", rc.Read))

	if report.ArenaStats.Live != 0 {
		return report, fmt.Errorf("%w: %d", ErrLeak, report.ArenaStats.Live)
	}
	return report, nil
}

func runGC(ctx context.Context, cfg config.BenchConfig) (Timing, error) {
	var timing Timing
	start := time.Now()

	base := pstack.New[int]()
	for i := range cfg.Depth {
		base = base.Prepend(i)
	}
	versions := make([]pstack.Stack[int], cfg.Versions)
	for v := range versions {
		versions[v] = base.Prepend(-v)
	}
	timing.Build = time.Since(start)

	start = time.Now()
	pool := concurrency.NewPool(ctx, cfg.Workers)
	for _, version := range versions {
		pool.Go(func(ctx context.Context) error {
			return read(ctx, version.All(), cfg.Depth+1)
		})
	}
	err := pool.Wait()
	timing.Read = time.Since(start)
	return timing, err
}

func runArena(ctx context.Context, cfg config.BenchConfig, arena *rcstack.Arena[int]) (Timing, error) {
	var timing Timing
	start := time.Now()

	base := arena.Empty()
	for i := range cfg.Depth {
		next := base.Prepend(i)
		base.Release()
		base = next
	}
	versions := make([]*rcstack.Stack[int], cfg.Versions)
	for v := range versions {
		versions[v] = base.Prepend(-v)
	}
	base.Release()
	timing.Build = time.Since(start)

	start = time.Now()
	pool := concurrency.NewPool(ctx, cfg.Workers)
	for _, version := range versions {
		pool.Go(func(ctx context.Context) error {
			defer version.Release()
			return read(ctx, version.All(), cfg.Depth+1)
		})
	}
	err := pool.Wait()
	timing.Read = time.Since(start)
	return timing, err
}

// read consumes seq and checks it yields want elements, giving up early if ctx is done.
func read(ctx context.Context, seq iter.Seq[int], want int) error {
	var n int
	for range seq {
		n++
		if n%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if n != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrShortRead, n, want)
	}
	return nil
}
