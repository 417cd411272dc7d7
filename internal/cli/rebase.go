package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gcl.dev/gcl/internal/engine"
	"gcl.dev/gcl/internal/errors"
	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
	"gcl.dev/gcl/internal/output"
	"gcl.dev/gcl/internal/runtime"
)

// newRebaseCmd creates the rebase command
func newRebaseCmd(opts *globalOptions) *cobra.Command {
	var (
		onto         string
		serverRebase bool
	)

	cmd := &cobra.Command{
		Use:   "rebase <change>",
		Short: "Rebase a change, or the dependent chain containing it, onto a new base",
		Long: `Rebase a change onto a new base.

The local history is reconciled against the review server first: the commit
embedding the change's Change-Id is located, classified against its patch
sets, and rebased together with every dependent change stacked on top of it.
Each cleanly rebased commit is pushed as a new patch set. A merge conflict
stops the run; nothing stacked on a conflicted change is ever rebased.

With --server the rebase is performed remotely by the review server instead,
leaving local history untouched.`,
		Args: cobra.ExactArgs(1),
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

			if serverRebase {
				change, err := ctx.Client.RebaseChange(cmd.Context(), ids[0], onto)
				if err != nil {
					return err
				}
				ctx.Splog.Info("%s", output.FormatChange(change))
				ctx.Splog.Newline()
				ctx.Splog.Info("change rebased on the server (new revision: %.8s)", change.CurrentRevision)
				return nil
			}

			return runLocalRebase(cmd, ctx, ids[0], onto)
		},
	}

	cmd.Flags().StringVar(&onto, "onto", "", "Base to rebase onto. Defaults to the remote head of the change's target branch.")
	cmd.Flags().BoolVar(&serverRebase, "server", false, "Let the review server rebase the change instead of rewriting local history.")

	return cmd
}

// runLocalRebase reconciles local history against the server and rebases the
// dependency chain containing the change
func runLocalRebase(cmd *cobra.Command, ctx *runtime.Context, id, onto string) error {
	target, err := ctx.Client.GetChange(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !target.IsOpen() {
		return fmt.Errorf("change %s is %s and cannot be rebased", target.ChangeID, target.Status)
	}

	branch, err := ctx.Repo.CurrentBranch()
	if err != nil {
		return err
	}

	if err := ctx.Ops.Fetch(cmd.Context()); err != nil {
		return err
	}

	// Local commits not yet on the remote branch are the rebase candidates
	tracking := ctx.Ops.RemoteTrackingRef(target.Branch)
	mergeBase, err := ctx.Repo.MergeBase(tracking, "HEAD")
	if err != nil {
		return err
	}
	commits, err := ctx.Repo.ListCommits(mergeBase, "HEAD")
	if err != nil {
		return err
	}

	changes, err := fetchBoundChanges(cmd, ctx, commits, target)
	if err != nil {
		return err
	}

	ix, err := engine.BuildIndex(commits, changes)
	if err != nil {
		return err
	}
	for _, commit := range ix.Unbound {
		ctx.Splog.Warn("commit %.8s (%s) is not on the review server; it is left alone",
			commit.SHA, commit.Subject)
	}

	reconciler := engine.NewReconciler(git.NewTreeDiff(ctx.Repo), ctx.Log)
	if err := reconciler.Reconcile(cmd.Context(), ix); err != nil {
		return err
	}

	chain := ix.ChainFor(target.ChangeID)
	if chain == nil {
		return fmt.Errorf("change %s has no local commit on branch %s: fetch it before rebasing",
			target.ChangeID, branch)
	}

	base := tracking
	if onto != "" {
		base = onto
	}
	baseSHA, err := ctx.Repo.Resolve(base)
	if err != nil {
		return err
	}

	orchestrator := engine.NewOrchestrator(ctx.Ops, ctx.Client, ctx.Log)
	report, err := orchestrator.Rebase(cmd.Context(), chain, engine.RebaseOptions{
		TargetBase: baseSHA,
		Branch:     branch,
	})
	if report != nil && len(report.Results) > 0 {
		ctx.Splog.Info("%s", output.FormatReport(report))
	}
	if err != nil {
		return err
	}
	if report.Conflicted() {
		return fmt.Errorf("rebase stopped on a merge conflict: %w", errors.ErrConflict)
	}
	return nil
}

// fetchBoundChanges fetches the remote change for every local commit carrying
// a Change-Id trailer. Commits whose Change-Id the server does not know stay
// unbound; that is how not-yet-uploaded work looks.
func fetchBoundChanges(cmd *cobra.Command, ctx *runtime.Context, commits []git.Commit, target *gerrit.Change) ([]gerrit.Change, error) {
	changes := []gerrit.Change{*target}
	for _, commit := range commits {
		if commit.ChangeID == "" || commit.ChangeID == target.ChangeID {
			continue
		}
		change, err := ctx.Client.GetChange(cmd.Context(), commit.ChangeID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		changes = append(changes, *change)
	}
	return changes, nil
}
