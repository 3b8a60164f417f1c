package bench

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openfga/pstack/internal/config"
	"github.com/openfga/pstack/pkg/logger"
)

func TestRun(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	cfg := config.BenchConfig{Depth: 500, Versions: 20, Workers: 4}
	report, err := Run(context.Background(), cfg, config.ArenaConfig{InitialCapacity: 16}, logger.NewNoopLogger())
	require.NoError(t, err)

	require.Equal(t, 20*501, report.Visited)
	require.Equal(t, 0, report.ArenaStats.Live)
	require.Equal(t, uint64(520), report.ArenaStats.Allocated)
	require.Equal(t, uint64(520), report.ArenaStats.Released)
}

func TestRunCancelled(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.BenchConfig{Depth: 4096, Versions: 4, Workers: 2}
	_, err := Run(ctx, cfg, config.DefaultConfig().Arena, logger.NewNoopLogger())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, read(ctx, slices.Values([]int{1, 2, 3}), 3))
	require.ErrorIs(t, read(ctx, slices.Values([]int{1, 2}), 3), ErrShortRead)
}
