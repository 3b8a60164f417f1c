package main

import (
	"os"

	"github.com/openfga/pstack/cmd"
	"github.com/openfga/pstack/cmd/bench"
	"github.com/openfga/pstack/cmd/replay"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	replayCmd := replay.NewReplayCommand()
	rootCmd.AddCommand(replayCmd)

	benchCmd := bench.NewBenchCommand()
	rootCmd.AddCommand(benchCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
