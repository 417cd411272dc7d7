package engine_test

import (
	"context"
	"fmt"
	"strings"

	"gcl.dev/gcl/internal/engine"
	"gcl.dev/gcl/internal/errors"
	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
)

// fakeWorld is an in-memory stand-in for the local repository, the review
// server, and the tree differ, consistent with each other. Commits are known
// by SHA; each carries a content label, and the differ reports the label as
// the commit's patch, so two commits with the same label are "the same
// change content" regardless of where they sit.
type fakeWorld struct {
	commits map[string]git.Commit
	content map[string]string // commit SHA -> content label

	changes map[string]*gerrit.Change

	conflicts map[string][]string // commit SHA -> conflict paths on cherry-pick
	failPush  map[string]error    // Change-Id -> push error

	pushed   []string // Change-Ids in push order
	branches map[string]string
	checkout string
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		commits:   make(map[string]git.Commit),
		content:   make(map[string]string),
		changes:   make(map[string]*gerrit.Change),
		conflicts: make(map[string][]string),
		failPush:  make(map[string]error),
		branches:  make(map[string]string),
	}
}

// addCommit registers a commit with the given content label
func (w *fakeWorld) addCommit(sha, parent, changeID, label string) git.Commit {
	commit := git.Commit{
		SHA:      sha,
		Subject:  "commit " + sha,
		ChangeID: changeID,
	}
	if parent != "" {
		commit.Parents = []string{parent}
	}
	w.commits[sha] = commit
	w.content[sha] = label
	return commit
}

// addChange registers a remote change; patch sets are (revision, parent) pairs
// in ascending order, with the revision's content label equal to contentOf[revision]
func (w *fakeWorld) addChange(changeID string, patchSets ...[2]string) *gerrit.Change {
	change := &gerrit.Change{
		ChangeID: changeID,
		Branch:   "main",
		Status:   gerrit.StatusNew,
	}
	for i, ps := range patchSets {
		change.PatchSets = append(change.PatchSets, gerrit.PatchSet{
			Number:   i + 1,
			Revision: ps[0],
			Parent:   ps[1],
		})
	}
	if latest := change.LatestPatchSet(); latest != nil {
		change.CurrentRevision = latest.Revision
	}
	w.changes[changeID] = change
	return change
}

// setContent labels a remote revision that has no local commit
func (w *fakeWorld) setContent(sha, label string) {
	w.content[sha] = label
}

// Diff implements engine.TreeDiffer
func (w *fakeWorld) Diff(ctx context.Context, commit, parent string) (string, error) {
	label, ok := w.content[commit]
	if !ok {
		return "", fmt.Errorf("unknown commit %s", commit)
	}
	return "patch(" + label + ")", nil
}

// CherryPick implements engine.Repository
func (w *fakeWorld) CherryPick(ctx context.Context, commitSHA, base string) (git.Commit, error) {
	if paths, ok := w.conflicts[commitSHA]; ok {
		return git.Commit{}, errors.NewConflictError("", paths)
	}
	orig, ok := w.commits[commitSHA]
	if !ok {
		return git.Commit{}, fmt.Errorf("unknown commit %s", commitSHA)
	}
	newSHA := commitSHA + "@" + base
	commit := git.Commit{
		SHA:      newSHA,
		Parents:  []string{base},
		Subject:  orig.Subject,
		ChangeID: orig.ChangeID,
	}
	w.commits[newSHA] = commit
	w.content[newSHA] = w.content[commitSHA]
	return commit, nil
}

// Checkout implements engine.Repository
func (w *fakeWorld) Checkout(ctx context.Context, ref string) error {
	w.checkout = ref
	return nil
}

// UpdateBranchRef implements engine.Repository
func (w *fakeWorld) UpdateBranchRef(branch, sha string) error {
	w.branches[branch] = sha
	return nil
}

// PushPatchSet implements engine.Remote
func (w *fakeWorld) PushPatchSet(ctx context.Context, changeID, commitSHA, parentRef string) (*gerrit.PatchSet, error) {
	if err, ok := w.failPush[changeID]; ok {
		return nil, err
	}
	change, ok := w.changes[changeID]
	if !ok {
		return nil, errors.NewRemoteError(errors.ErrNotFound, 404, changeID)
	}
	ps := gerrit.PatchSet{
		Number:   len(change.PatchSets) + 1,
		Revision: commitSHA,
		Parent:   parentRef,
	}
	change.PatchSets = append(change.PatchSets, ps)
	change.CurrentRevision = commitSHA
	w.pushed = append(w.pushed, changeID)
	return &ps, nil
}

// changeList returns the registered changes as a slice
func (w *fakeWorld) changeList() []gerrit.Change {
	var changes []gerrit.Change
	for _, c := range w.changes {
		changes = append(changes, *c)
	}
	return changes
}

// reconciled builds and reconciles an index over the given commits
func (w *fakeWorld) reconciled(commits ...git.Commit) (*engine.Index, error) {
	ix, err := engine.BuildIndex(commits, w.changeList())
	if err != nil {
		return nil, err
	}
	if err := engine.NewReconciler(w, nil).Reconcile(context.Background(), ix); err != nil {
		return nil, err
	}
	return ix, nil
}

// commits collects commits into a slice in local history order
func commits(cs ...git.Commit) []git.Commit {
	return cs
}

// states summarizes a report as "SKIPPED,REBASED,..." in chain order
func states(report *engine.Report) string {
	var parts []string
	for _, res := range report.Results {
		parts = append(parts, res.State.String())
	}
	return strings.Join(parts, ",")
}
