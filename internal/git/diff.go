package git

import (
	"context"
)

// TreeDiff produces the patch between a commit's tree and its parent's tree.
// The reconciliation engine compares these patches for equality to decide
// whether a local commit and a remote patch set carry the same content, so
// the output must be stable for identical trees: no commit ids, no color,
// rename detection on.
type TreeDiff struct {
	runner *CommandRunner
}

// NewTreeDiff creates a TreeDiff for the given repository
func NewTreeDiff(repo *Repository) *TreeDiff {
	return &TreeDiff{runner: NewCommandRunner(repo.Root())}
}

// Diff returns the patch from parent to commit. A root commit (empty parent)
// is diffed against the empty tree.
func (d *TreeDiff) Diff(ctx context.Context, commit, parent string) (string, error) {
	if parent == "" {
		// git's well-known empty tree object
		parent = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
	}
	return d.runner.RunRaw(ctx, "diff-tree", "--patch", "--no-color", "--find-renames", parent, commit)
}
