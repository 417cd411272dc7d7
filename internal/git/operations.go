package git

import (
	"context"
	"fmt"

	gclerrors "gcl.dev/gcl/internal/errors"
)

// Operations performs the mutating git operations gcl needs: detached
// checkouts, cherry-picks, branch ref updates, and pushes to the review
// server. Reads go through Repository; everything here shells out to git so
// the behavior (merge machinery, hooks, refspecs) is exactly git's own.
type Operations struct {
	runner *CommandRunner
	repo   *Repository
	remote string
}

// NewOperations creates Operations for the given repository.
// remote is the git remote of the review server, usually "origin".
func NewOperations(repo *Repository, remote string) *Operations {
	if remote == "" {
		remote = "origin"
	}
	return &Operations{
		runner: NewCommandRunner(repo.Root()),
		repo:   repo,
		remote: remote,
	}
}

// Checkout checks out a ref, detaching when given a raw revision
func (o *Operations) Checkout(ctx context.Context, ref string) error {
	_, err := o.runner.Run(ctx, "checkout", "--quiet", ref)
	return err
}

// CheckoutDetached checks out a revision with a detached HEAD
func (o *Operations) CheckoutDetached(ctx context.Context, revision string) error {
	_, err := o.runner.Run(ctx, "checkout", "--quiet", "--detach", revision)
	return err
}

// CherryPick re-applies commitSHA onto the given base and returns the new
// commit. The commit message is carried over verbatim, so the Change-Id
// trailer survives the rewrite. On a merge conflict the cherry-pick is
// aborted, the working tree is left clean, and a ConflictError listing the
// conflicting paths is returned.
func (o *Operations) CherryPick(ctx context.Context, commitSHA, base string) (Commit, error) {
	head, err := o.runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return Commit{}, err
	}
	if head != base {
		if err := o.CheckoutDetached(ctx, base); err != nil {
			return Commit{}, err
		}
	}

	if _, err := o.runner.Run(ctx, "cherry-pick", "--allow-empty", commitSHA); err != nil {
		paths, pathsErr := o.unmergedPaths(ctx)
		if pathsErr != nil || len(paths) == 0 {
			// Not a content conflict: surface the git failure as-is
			_, _ = o.runner.Run(ctx, "cherry-pick", "--abort")
			return Commit{}, err
		}
		_, _ = o.runner.Run(ctx, "cherry-pick", "--abort")
		return Commit{}, gclerrors.NewConflictError("", paths)
	}

	newSHA, err := o.runner.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return Commit{}, err
	}
	return o.repo.GetCommit(newSHA)
}

// unmergedPaths lists the files left unmerged by an in-progress merge
func (o *Operations) unmergedPaths(ctx context.Context) ([]string, error) {
	return o.runner.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
}

// UpdateBranchRef moves a local branch to point at a revision without
// touching the working tree
func (o *Operations) UpdateBranchRef(branch, sha string) error {
	_, err := o.runner.Run(context.Background(), "update-ref", "refs/heads/"+branch, sha)
	return err
}

// PushRef pushes a refspec to the review server's remote. This is how new
// patch sets reach Gerrit (sha:refs/for/branch).
func (o *Operations) PushRef(ctx context.Context, refspec string) error {
	if _, err := o.runner.Run(ctx, "push", o.remote, refspec); err != nil {
		return gclerrors.NewRemoteError(gclerrors.ErrNetwork, 0, err.Error())
	}
	return nil
}

// Fetch updates the remote-tracking refs from the review server
func (o *Operations) Fetch(ctx context.Context) error {
	_, err := o.runner.Run(ctx, "fetch", "--quiet", o.remote)
	return err
}

// RemoteTrackingRef returns the remote-tracking ref of a branch,
// e.g. origin/main for main
func (o *Operations) RemoteTrackingRef(branch string) string {
	return fmt.Sprintf("%s/%s", o.remote, branch)
}
