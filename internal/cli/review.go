package cli

import (
	"github.com/spf13/cobra"

	"gcl.dev/gcl/internal/output"
	"gcl.dev/gcl/internal/runtime"
)

// newReviewCmd creates the review command
func newReviewCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "review <change>...",
		Aliases: []string{"show"},
		Short:   "Fetch and display change details",
		Long:    "Fetch and display change details. Changes are given as a Change-Id, a change number, or a range of change numbers (e.g. 345..349).",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := expandChangeArgs(args)
			if err != nil {
				return err
			}

			ctx, err := runtime.NewContext(runtime.Options{Verbose: opts.Verbose, Remote: opts.Remote})
			if err != nil {
				return err
			}
			defer ctx.Close()

			for _, id := range ids {
				change, err := ctx.Client.GetChange(cmd.Context(), id)
				if err != nil {
					return err
				}
				ctx.Splog.Info("%s", output.FormatChangeDetail(change))
				ctx.Splog.Newline()
			}
			return nil
		},
	}

	return cmd
}
