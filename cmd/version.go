package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfga/pstack/internal/build"
)

// NewVersionCommand returns the command to get pstack version
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Return the pstack version",
		Long:  "Return the pstack version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}

	return cmd
}

// print out the built version
func version(cmd *cobra.Command, _ []string) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "pstack Version %s Date %s commit id %s\n", build.Version, build.Date, build.Commit)
	return err
}
