// Package cli assembles the gcl command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// globalOptions are shared by every subcommand via persistent flags
type globalOptions struct {
	Verbose bool
	Remote  string
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "gcl",
		Short:   "Gcl is a command line client for Gerrit Code Review",
		Long:    "Gcl is a command line client for Gerrit Code Review: list, inspect, submit, and rebase changes without leaving the terminal.",
		Version: version,

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable diagnostic logging.")
	rootCmd.PersistentFlags().StringVar(&opts.Remote, "remote", "origin", "Git remote of the review server.")

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newReviewCmd(opts))
	rootCmd.AddCommand(newSubmitCmd(opts))
	rootCmd.AddCommand(newRebaseCmd(opts))

	return rootCmd
}
