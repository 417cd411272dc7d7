package engine

import (
	"gcl.dev/gcl/internal/errors"
	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
)

// Index is the in-memory mapping from Change-Id to the reconciled state of a
// change. Bindings live in a flat arena addressed by index; the Change-Id map
// and the children adjacency hold indices into it rather than pointers, so
// local/remote cross-references cannot form cycles.
type Index struct {
	bindings   []Binding
	byChangeID map[string]int
	children   map[string][]int // Change-Id -> dependent binding indices

	// Unbound lists local commits that embed no Change-Id, or one the remote
	// does not know: not yet uploaded, out of rebase scope.
	Unbound []git.Commit

	// Untracked lists remote changes with no corresponding local commit.
	// They are observed, never an error.
	Untracked []gerrit.Change
}

// BuildIndex pairs local commits with remote changes by embedded Change-Id.
// commits must be in local history order, parents first, which makes the
// binding arena dependency-ordered for free. Pure and side-effect free over
// its inputs. Two commits embedding the same Change-Id is a configuration
// error the user must resolve; BuildIndex fails rather than picking one.
func BuildIndex(commits []git.Commit, changes []gerrit.Change) (*Index, error) {
	byChangeID := make(map[string]*gerrit.Change, len(changes))
	for i := range changes {
		byChangeID[changes[i].ChangeID] = &changes[i]
	}

	ix := &Index{
		byChangeID: make(map[string]int),
		children:   make(map[string][]int),
	}

	seen := make(map[string]string) // Change-Id -> first commit SHA embedding it
	for _, commit := range commits {
		if commit.ChangeID == "" {
			ix.Unbound = append(ix.Unbound, commit)
			continue
		}
		if first, dup := seen[commit.ChangeID]; dup {
			return nil, errors.NewAmbiguousChangeIDError(commit.ChangeID, []string{first, commit.SHA})
		}
		seen[commit.ChangeID] = commit.SHA

		change, ok := byChangeID[commit.ChangeID]
		if !ok {
			// Change-Id trailer present but the remote has never seen it
			ix.Unbound = append(ix.Unbound, commit)
			continue
		}

		ix.byChangeID[commit.ChangeID] = len(ix.bindings)
		ix.bindings = append(ix.bindings, Binding{Commit: commit, Change: *change})
	}

	bound := make(map[string]int, len(ix.bindings)) // commit SHA -> binding index
	for i := range ix.bindings {
		bound[ix.bindings[i].Commit.SHA] = i
	}
	for i := range ix.bindings {
		parent := ix.bindings[i].Commit.Parent()
		if p, ok := bound[parent]; ok {
			parentID := ix.bindings[p].Change.ChangeID
			ix.children[parentID] = append(ix.children[parentID], i)
		}
	}

	for i := range changes {
		if _, ok := ix.byChangeID[changes[i].ChangeID]; !ok {
			ix.Untracked = append(ix.Untracked, changes[i])
		}
	}

	return ix, nil
}

// Binding returns the binding for a Change-Id
func (ix *Index) Binding(changeID string) (*Binding, bool) {
	i, ok := ix.byChangeID[changeID]
	if !ok {
		return nil, false
	}
	return &ix.bindings[i], true
}

// Bindings returns all bindings in dependency order (parents first)
func (ix *Index) Bindings() []*Binding {
	out := make([]*Binding, len(ix.bindings))
	for i := range ix.bindings {
		out[i] = &ix.bindings[i]
	}
	return out
}

// Len returns the number of bound changes
func (ix *Index) Len() int {
	return len(ix.bindings)
}

// Chain is an ordered stack of bindings where each commit's parent is the
// prior commit in the chain: a stack of dependent changes that must be
// rebased together, base first.
type Chain struct {
	index   *Index
	members []int
}

// Bindings returns the chain members in dependency order
func (c *Chain) Bindings() []*Binding {
	out := make([]*Binding, len(c.members))
	for i, m := range c.members {
		out[i] = &c.index.bindings[m]
	}
	return out
}

// Len returns the chain length
func (c *Chain) Len() int {
	return len(c.members)
}

// Contains reports whether the chain includes a Change-Id
func (c *Chain) Contains(changeID string) bool {
	for _, m := range c.members {
		if c.index.bindings[m].Change.ChangeID == changeID {
			return true
		}
	}
	return false
}

// Chains groups the bound changes into dependency chains by following parent
// pointers among bound commits. A binding whose parent commit is not bound
// starts a new chain.
func (ix *Index) Chains() []*Chain {
	bound := make(map[string]int, len(ix.bindings))
	for i := range ix.bindings {
		bound[ix.bindings[i].Commit.SHA] = i
	}

	chainOf := make(map[int]*Chain)
	var chains []*Chain

	// Arena order is dependency order, so a parent's chain always exists
	// before its child is visited
	for i := range ix.bindings {
		if p, ok := bound[ix.bindings[i].Commit.Parent()]; ok {
			chain := chainOf[p]
			chain.members = append(chain.members, i)
			chainOf[i] = chain
			continue
		}
		chain := &Chain{index: ix, members: []int{i}}
		chains = append(chains, chain)
		chainOf[i] = chain
	}

	return chains
}

// ChainFor returns the chain containing a Change-Id, or nil
func (ix *Index) ChainFor(changeID string) *Chain {
	for _, chain := range ix.Chains() {
		if chain.Contains(changeID) {
			return chain
		}
	}
	return nil
}
