// Package replay contains the command that runs a script of stack operations.
package replay

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openfga/pstack/cmd/util"
	"github.com/openfga/pstack/internal/config"
	"github.com/openfga/pstack/internal/script"
	"github.com/openfga/pstack/pkg/logger"
	"github.com/openfga/pstack/pkg/rcstack"
)

func NewReplayCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a script of stack operations",
		Long: `Replay a script of stack operations against a reference-counted arena.

Every step of the script derives, inspects or releases a named stack version. Observations
are printed one per line. The command fails on the first unmet expectation, or if any node
is still live once every version has been released.`,
		RunE:         replay,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	bindReplayFlags(cmd)

	return cmd
}

// bindReplayFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindReplayFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.Flags()

	flags.Bool("concurrent-safe", defaultConfig.Arena.ConcurrentSafe, "guard the arena with a mutex")
	util.MustBindPFlag("arena.concurrentSafe", flags.Lookup("concurrent-safe"))
	util.MustBindEnv("arena.concurrentSafe", "PSTACK_ARENA_CONCURRENT_SAFE", "PSTACK_ARENA_CONCURRENTSAFE")

	flags.Int("initial-capacity", defaultConfig.Arena.InitialCapacity, "the number of node slots the arena preallocates")
	util.MustBindPFlag("arena.initialCapacity", flags.Lookup("initial-capacity"))
	util.MustBindEnv("arena.initialCapacity", "PSTACK_ARENA_INITIAL_CAPACITY", "PSTACK_ARENA_INITIALCAPACITY")
}

// ArenaOptions translates the arena settings of cfg.
func ArenaOptions(cfg config.ArenaConfig, l logger.Logger) []rcstack.ArenaOption {
	opts := []rcstack.ArenaOption{
		rcstack.WithInitialCapacity(cfg.InitialCapacity),
		rcstack.WithLogger(l),
	}
	if cfg.ConcurrentSafe {
		opts = append(opts, rcstack.WithConcurrentSafety())
	}
	return opts
}

func replay(cmd *cobra.Command, args []string) error {
	cfg, err := util.ReadConfig()
	if err != nil {
		return err
	}

	zl, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	log := zl.With(zap.String("script", args[0]))

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	s, err := script.Parse(data)
	if err != nil {
		return err
	}

	arena := rcstack.NewArena[string](ArenaOptions(cfg.Arena, log)...)
	res, err := script.Run(cmd.Context(), arena, s, log)
	for _, line := range res.Output {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	if err != nil {
		log.Error("replay failed", zap.Int("steps", res.Steps), zap.Error(err))
		return err
	}

	stats := arena.Stats()
	log.Info("replay finished",
		zap.Int("steps", res.Steps),
		zap.Uint64("allocated", stats.Allocated),
		zap.Uint64("released", stats.Released),
		zap.Int("capacity", stats.Capacity),
	)
	return nil
}
