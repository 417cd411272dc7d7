package cli

import (
	"github.com/spf13/cobra"

	"gcl.dev/gcl/internal/runtime"
)

// newSubmitCmd creates the submit command
func newSubmitCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <change>",
		Short: "Submit a change for merging",
		Args:  cobra.ExactArgs(1),
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

			id := ids[0]
			if err := ctx.Client.Submit(cmd.Context(), id); err != nil {
				return err
			}

			change, err := ctx.Client.GetChange(cmd.Context(), id)
			if err != nil {
				return err
			}
			ctx.Splog.Info("change %s submitted (status: %s)", change.ChangeID, change.Status)
			return nil
		},
	}

	return cmd
}
