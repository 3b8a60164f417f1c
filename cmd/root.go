// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openfga/pstack/cmd/util"
	"github.com/openfga/pstack/internal/config"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with PSTACK, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PSTACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/pstack", "$HOME/.pstack", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	cmd := &cobra.Command{
		Use:   "pstack",
		Short: "Exercise persistent, structurally shared stacks",
		Long: `Exercise persistent, structurally shared stacks.

pstack replays scripts of stack operations against a reference-counted arena, checking what
every version observes and that no node outlives the last stack referencing it. It can also
benchmark concurrent readers over stacks sharing a long common suffix.`,
		SilenceUsage: true,
	}

	bindLogFlags(cmd)

	return cmd
}

// bindLogFlags binds the logging flags shared by every subcommand to the equivalent config
// value being managed by viper.
func bindLogFlags(command *cobra.Command) {
	defaultConfig := config.DefaultConfig()
	flags := command.PersistentFlags()

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in ('text' or 'json')")
	util.MustBindPFlag("log.format", flags.Lookup("log-format"))
	util.MustBindEnv("log.format", "PSTACK_LOG_FORMAT")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use ('none', 'debug', 'info', 'warn' or 'error')")
	util.MustBindPFlag("log.level", flags.Lookup("log-level"))
	util.MustBindEnv("log.level", "PSTACK_LOG_LEVEL")
}
