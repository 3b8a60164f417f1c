package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewPool(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	t.Run("bounds_goroutines", func(t *testing.T) {
		var running, peak atomic.Int32
		p := NewPool(context.Background(), 2)
		for range 20 {
			p.Go(func(ctx context.Context) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				running.Add(-1)
				return nil
			})
		}
		require.NoError(t, p.Wait())
		require.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("first_error_cancels_the_rest", func(t *testing.T) {
		errBoom := errors.New("boom")
		p := NewPool(context.Background(), 1)
		p.Go(func(ctx context.Context) error {
			return errBoom
		})
		p.Go(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		require.ErrorIs(t, p.Wait(), errBoom)
	})
}
