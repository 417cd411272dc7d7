package engine

import (
	"context"

	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
)

// Repository is the slice of local-repository behavior the orchestrator
// needs. Implemented by git.Operations; tests provide fakes.
type Repository interface {
	// CherryPick re-applies a commit onto base and returns the new commit.
	// Conflicts surface as *errors.ConflictError.
	CherryPick(ctx context.Context, commitSHA, base string) (git.Commit, error)

	// Checkout checks out a ref
	Checkout(ctx context.Context, ref string) error

	// UpdateBranchRef moves a local branch to a revision
	UpdateBranchRef(branch, sha string) error
}

// Remote is the slice of review-server behavior the orchestrator needs.
// Implemented by gerrit.Client; tests provide fakes.
type Remote interface {
	PushPatchSet(ctx context.Context, changeID, commitSHA, parentRef string) (*gerrit.PatchSet, error)
}
