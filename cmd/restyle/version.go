package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/restyle/internal/app"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of restyle.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "restyle version %s\n", app.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", app.Commit())
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", app.BuildDate)
		},
	}
}
