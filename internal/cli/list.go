package cli

import (
	"github.com/spf13/cobra"

	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/output"
	"gcl.dev/gcl/internal/runtime"
)

// newListCmd creates the list command
func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		status  string
		owner   string
		branch  string
		watched bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List changes matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(runtime.Options{Verbose: opts.Verbose, Remote: opts.Remote})
			if err != nil {
				return err
			}
			defer ctx.Close()

			changes, err := ctx.Client.ListChanges(cmd.Context(), gerrit.Query{
				Status:  status,
				Owner:   owner,
				Branch:  branch,
				Watched: watched,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			for i := range changes {
				ctx.Splog.Info("%s", output.FormatChange(&changes[i]))
				ctx.Splog.Newline()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "open", "Filter by change status (open, merged, abandoned).")
	cmd.Flags().StringVar(&owner, "owner", "self", "Filter by change owner.")
	cmd.Flags().StringVar(&branch, "branch", "", "Filter by target branch.")
	cmd.Flags().BoolVar(&watched, "watched", false, "Only list watched changes.")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of changes to list.")

	return cmd
}
