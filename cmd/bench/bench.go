// Package bench contains the command that measures concurrent reads over shared stacks.
package bench

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openfga/pstack/cmd/util"
	"github.com/openfga/pstack/internal/config"
	"github.com/openfga/pstack/pkg/logger"
)

const metricsShutdownTimeout = 5 * time.Second

func NewBenchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark concurrent readers over stacks sharing a common suffix",
		Long: `Benchmark concurrent readers over stacks sharing a common suffix.

A chain of 'depth' elements is built, 'versions' stacks are derived from it, and every
version is read to the bottom by a bounded pool of workers. The workload runs once with
garbage-collected stacks and once with a reference-counted arena.`,
		RunE:         bench,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	bindBenchFlags(cmd)

	return cmd
}

// bindBenchFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindBenchFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.Int("depth", defaultConfig.Bench.Depth, "the number of elements in the chain shared by every version")
	util.MustBindPFlag("bench.depth", flags.Lookup("depth"))
	util.MustBindEnv("bench.depth", "PSTACK_BENCH_DEPTH")

	flags.Int("versions", defaultConfig.Bench.Versions, "the number of stacks derived from the shared chain")
	util.MustBindPFlag("bench.versions", flags.Lookup("versions"))
	util.MustBindEnv("bench.versions", "PSTACK_BENCH_VERSIONS")

	flags.Int("workers", defaultConfig.Bench.Workers, "the maximum number of goroutines reading versions at once")
	util.MustBindPFlag("bench.workers", flags.Lookup("workers"))
	util.MustBindEnv("bench.workers", "PSTACK_BENCH_WORKERS")

	flags.String("metrics-addr", defaultConfig.Bench.MetricsAddr, "the host:port address to serve prometheus metrics on while the benchmark runs")
	util.MustBindPFlag("bench.metricsAddr", flags.Lookup("metrics-addr"))
	util.MustBindEnv("bench.metricsAddr", "PSTACK_BENCH_METRICS_ADDR", "PSTACK_BENCH_METRICSADDR")
}

func bench(cmd *cobra.Command, _ []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	report, err := runWithMetrics(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "visited %d elements per rendition\n", report.Visited)
	fmt.Fprintf(cmd.OutOrStdout(), "gc:    build %s read %s\n", report.GC.Build, report.GC.Read)
	fmt.Fprintf(cmd.OutOrStdout(), "arena: build %s read %s (allocated %d, released %d)\n",
		report.Arena.Build, report.Arena.Read, report.ArenaStats.Allocated, report.ArenaStats.Released)
	return nil
}

// runWithMetrics runs the workload, serving prometheus metrics on cfg.Bench.MetricsAddr for
// as long as it takes when the address is set.
func runWithMetrics(ctx context.Context, cfg *config.Config, log logger.Logger) (*Report, error) {
	if cfg.Bench.MetricsAddr == "" {
		return Run(ctx, cfg.Bench, cfg.Arena, log)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              cfg.Bench.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	var report *Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(fmt.Sprintf("📈 starting prometheus metrics server on '%s'", cfg.Bench.MetricsAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start prometheus metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shutdown the prometheus metrics server", zap.Error(err))
			}
		}()

		var err error
		report, err = Run(gctx, cfg.Bench, cfg.Arena, log)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
