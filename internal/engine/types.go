package engine

import (
	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
)

// Classification is the reconciliation verdict for one bound change
type Classification int

const (
	// Unclassified indicates the binding has not been reconciled yet
	Unclassified Classification = iota
	// UpToDate indicates the local commit equals the latest patch set
	UpToDate
	// NeedsRebase indicates the divergence is purely positional: the local
	// commit carries the same tree-diff as the latest patch set, on a
	// different parent
	NeedsRebase
	// Diverged indicates local content differs and is not derivable from the
	// latest patch set by a pure rebase; the user must resolve it
	Diverged
	// RemoteAhead indicates the remote has a newer patch set unknown locally;
	// the local copy must be synced before any rebase
	RemoteAhead
)

func (c Classification) String() string {
	switch c {
	case UpToDate:
		return "UP_TO_DATE"
	case NeedsRebase:
		return "NEEDS_REBASE"
	case Diverged:
		return "DIVERGED"
	case RemoteAhead:
		return "REMOTE_AHEAD"
	default:
		return "UNCLASSIFIED"
	}
}

// State is the per-change progress of one rebase session.
// Transitions: Unprocessed -> Skipped, or Unprocessed -> Rebasing ->
// {Rebased, Conflicted}. Everything downstream of a conflict or failure is
// Blocked. A change enters Rebasing only once every chain member before it is
// Rebased or Skipped.
type State int

const (
	// Unprocessed indicates the session has not reached the change
	Unprocessed State = iota
	// Skipped indicates the change was already up to date; no patch set pushed
	Skipped
	// Rebasing indicates the change is being re-applied onto its new base
	Rebasing
	// Rebased indicates a new patch set was created and pushed
	Rebased
	// Conflicted indicates the re-apply hit a merge conflict; never auto-resolved
	Conflicted
	// Blocked indicates an earlier chain member conflicted or failed
	Blocked
)

func (s State) String() string {
	switch s {
	case Skipped:
		return "SKIPPED"
	case Rebasing:
		return "REBASING"
	case Rebased:
		return "REBASED"
	case Conflicted:
		return "CONFLICTED"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNPROCESSED"
	}
}

// Binding pairs a local commit with the remote change it corresponds to.
// Bindings are derived views: created fresh on every reconciliation pass and
// never persisted.
type Binding struct {
	Commit         git.Commit
	Change         gerrit.Change
	Classification Classification
}

// Latest returns the change's latest patch set, or nil when the server
// response carried no revisions
func (b *Binding) Latest() *gerrit.PatchSet {
	return b.Change.LatestPatchSet()
}

// ChangeID returns the bound Change-Id
func (b *Binding) ChangeID() string {
	return b.Change.ChangeID
}

// ChangeResult is the terminal state one change reached in a rebase session
type ChangeResult struct {
	ChangeID      string
	State         State
	NewCommit     string           // set when State is Rebased
	NewPatchSet   *gerrit.PatchSet // set when State is Rebased
	ConflictPaths []string         // set when State is Conflicted
}

// Report is the user-visible outcome of one rebase session. Partial progress
// is preserved: changes already rebased and pushed stay pushed, and
// FailedChange names the point a remote failure aborted the run so the user
// can rerun safely.
type Report struct {
	Results      []ChangeResult
	Tip          string // SHA of the rebased chain tip, "" when nothing moved
	FailedChange string // Change-Id where a push failure aborted the chain
}

// Result returns the result recorded for a Change-Id, or nil
func (r *Report) Result(changeID string) *ChangeResult {
	for i := range r.Results {
		if r.Results[i].ChangeID == changeID {
			return &r.Results[i]
		}
	}
	return nil
}

// Pushes counts the patch sets created by the session
func (r *Report) Pushes() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].State == Rebased {
			n++
		}
	}
	return n
}

// Conflicted reports whether any change hit a merge conflict
func (r *Report) Conflicted() bool {
	for i := range r.Results {
		if r.Results[i].State == Conflicted {
			return true
		}
	}
	return false
}

// Clean reports whether every change ended Rebased or Skipped
func (r *Report) Clean() bool {
	if r.FailedChange != "" {
		return false
	}
	for i := range r.Results {
		switch r.Results[i].State {
		case Rebased, Skipped:
		default:
			return false
		}
	}
	return true
}
