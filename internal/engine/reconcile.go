package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TreeDiffer produces the patch between a commit and a parent. The
// classification step compares patches for equality to decide whether local
// and remote content match, so implementations must produce identical output
// for identical trees. Pluggable so the comparison algorithm can be swapped
// without touching the session state machine.
type TreeDiffer interface {
	Diff(ctx context.Context, commit, parent string) (string, error)
}

// Reconciler classifies every bound change against its remote patch sets
type Reconciler struct {
	differ TreeDiffer
	log    *zap.Logger
}

// NewReconciler creates a Reconciler using the given differ
func NewReconciler(differ TreeDiffer, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{differ: differ, log: log}
}

// Reconcile classifies every binding in the index. Classification is a pure
// function of current local and remote state: running it twice with no
// intervening change yields the same verdicts.
func (r *Reconciler) Reconcile(ctx context.Context, ix *Index) error {
	for _, binding := range ix.Bindings() {
		class, err := r.classify(ctx, binding)
		if err != nil {
			return fmt.Errorf("failed to classify %s: %w", binding.ChangeID(), err)
		}
		binding.Classification = class
		r.log.Debug("classified change",
			zap.String("change", binding.ChangeID()),
			zap.String("commit", binding.Commit.SHA),
			zap.Stringer("classification", class))
	}
	return nil
}

// classify decides how one local commit relates to its change's patch sets:
//
//   - the commit is the latest patch set -> UpToDate
//   - the commit is an older patch set -> RemoteAhead (the tip moved remotely)
//   - the commit's tree-diff equals the latest patch set's tree-diff but sits
//     on a different parent -> NeedsRebase (purely positional divergence)
//   - anything else -> Diverged
func (r *Reconciler) classify(ctx context.Context, b *Binding) (Classification, error) {
	latest := b.Latest()
	if latest == nil {
		return Unclassified, fmt.Errorf("change %s has no patch sets", b.ChangeID())
	}

	if b.Commit.SHA == latest.Revision {
		return UpToDate, nil
	}

	if ps := b.Change.PatchSetFor(b.Commit.SHA); ps != nil {
		return RemoteAhead, nil
	}

	localDiff, err := r.differ.Diff(ctx, b.Commit.SHA, b.Commit.Parent())
	if err != nil {
		return Unclassified, err
	}
	remoteDiff, err := r.differ.Diff(ctx, latest.Revision, latest.Parent)
	if err != nil {
		return Unclassified, err
	}

	if localDiff == remoteDiff && b.Commit.Parent() != latest.Parent {
		return NeedsRebase, nil
	}
	return Diverged, nil
}
