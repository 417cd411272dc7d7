package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gcl.dev/gcl/internal/errors"
)

// Orchestrator executes the rebase of a dependency chain against a target
// base, strictly base-first. It is the only part of the core with side
// effects: local commits are rewritten and new patch sets are pushed.
type Orchestrator struct {
	repo   Repository
	remote Remote
	log    *zap.Logger
}

// NewOrchestrator creates an Orchestrator over the given collaborators
func NewOrchestrator(repo Repository, remote Remote, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{repo: repo, remote: remote, log: log}
}

// RebaseOptions configures one rebase session
type RebaseOptions struct {
	// TargetBase is the commit SHA the base of the chain is rebased onto
	TargetBase string

	// Branch, when set, is the local branch moved to the rebased tip after a
	// fully clean session
	Branch string
}

// Rebase processes the chain in dependency order.
//
// Each member is handled by classification: changes whose commit already sits
// on the current base are Skipped and their commit becomes the next base;
// everything else is cherry-picked onto the current base and pushed as a new
// patch set. A merge conflict stops the session: the conflicting change is
// reported Conflicted with its paths, all remaining members are Blocked, and
// nothing downstream is ever rebased onto the unresolved result. A push
// failure aborts at that point with the failure recorded in the report;
// already-pushed patch sets stay pushed, and rerunning reclassifies them as
// up to date.
//
// Preconditions are checked before any mutation: a chain containing a
// RemoteAhead or Diverged change is rejected outright.
func (o *Orchestrator) Rebase(ctx context.Context, chain *Chain, opts RebaseOptions) (*Report, error) {
	bindings := chain.Bindings()

	for _, b := range bindings {
		switch b.Classification {
		case Unclassified:
			return nil, fmt.Errorf("change %s has not been reconciled", b.ChangeID())
		case RemoteAhead:
			latest := b.Latest()
			return nil, &errors.RemoteAheadError{
				ChangeID:    b.ChangeID(),
				LocalSHA:    b.Commit.SHA,
				RemoteSHA:   latest.Revision,
				PatchSetNum: latest.Number,
			}
		case Diverged:
			return nil, fmt.Errorf("change %s: %w: amend it to match the remote before rebasing",
				b.ChangeID(), errors.ErrDiverged)
		}
	}

	report := &Report{Results: make([]ChangeResult, len(bindings))}
	for i, b := range bindings {
		report.Results[i] = ChangeResult{ChangeID: b.ChangeID(), State: Unprocessed}
	}

	base := opts.TargetBase
	rebasedAny := false

	for i, b := range bindings {
		result := &report.Results[i]

		// A change that matches the remote and still sits on the current base
		// needs nothing. If the base moved under it (an earlier member was
		// rebased, or --onto points elsewhere), being in sync with the remote
		// is not enough: it must follow its parent.
		if b.Classification == UpToDate && b.Commit.Parent() == base {
			result.State = Skipped
			base = b.Commit.SHA
			o.log.Debug("skipping change", zap.String("change", b.ChangeID()))
			continue
		}

		result.State = Rebasing
		o.log.Debug("rebasing change",
			zap.String("change", b.ChangeID()),
			zap.String("onto", base))

		newCommit, err := o.repo.CherryPick(ctx, b.Commit.SHA, base)
		if err != nil {
			var conflict *errors.ConflictError
			if errors.As(err, &conflict) {
				result.State = Conflicted
				result.ConflictPaths = conflict.Paths
				o.block(report, i+1)
				o.restore(ctx, opts, report)
				return report, nil
			}
			result.State = Blocked
			o.block(report, i+1)
			o.restore(ctx, opts, report)
			return report, fmt.Errorf("failed to rebase %s: %w", b.ChangeID(), err)
		}

		if newCommit.ChangeID != b.ChangeID() {
			// The rewrite must never lose or alter the trailer
			o.block(report, i)
			o.restore(ctx, opts, report)
			return report, fmt.Errorf("rebased commit %s carries change-id %q, want %q",
				newCommit.SHA, newCommit.ChangeID, b.ChangeID())
		}

		ps, err := o.remote.PushPatchSet(ctx, b.ChangeID(), newCommit.SHA, base)
		if err != nil {
			// No rollback: patch sets pushed so far stay pushed. The report
			// names the failure point so a rerun can pick up from here.
			result.State = Blocked
			report.FailedChange = b.ChangeID()
			o.block(report, i+1)
			o.restore(ctx, opts, report)
			return report, fmt.Errorf("failed to push patch set for %s: %w", b.ChangeID(), err)
		}

		result.State = Rebased
		result.NewCommit = newCommit.SHA
		result.NewPatchSet = ps
		base = newCommit.SHA
		rebasedAny = true

		o.log.Debug("pushed patch set",
			zap.String("change", b.ChangeID()),
			zap.Int("patchset", ps.Number),
			zap.String("commit", newCommit.SHA))
	}

	if rebasedAny {
		report.Tip = base
		if opts.Branch != "" {
			if err := o.repo.UpdateBranchRef(opts.Branch, base); err != nil {
				return report, fmt.Errorf("failed to move %s to rebased tip: %w", opts.Branch, err)
			}
			if err := o.repo.Checkout(ctx, opts.Branch); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// block marks every result from index from onwards as Blocked
func (o *Orchestrator) block(report *Report, from int) {
	for i := from; i < len(report.Results); i++ {
		report.Results[i].State = Blocked
	}
}

// restore puts HEAD back on the session branch after an aborted run. The
// branch ref itself is untouched: partially rebased commits are reachable
// only through the report until the user resolves and reruns.
func (o *Orchestrator) restore(ctx context.Context, opts RebaseOptions, report *Report) {
	if opts.Branch == "" {
		return
	}
	if err := o.repo.Checkout(ctx, opts.Branch); err != nil {
		o.log.Debug("failed to restore branch checkout",
			zap.String("branch", opts.Branch), zap.Error(err))
	}
}
