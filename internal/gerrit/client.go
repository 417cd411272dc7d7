package gerrit

import (
	"context"
	"strings"
)

// Query holds the supported change search filters.
// Zero-value fields are omitted from the generated search string.
type Query struct {
	Status  string // open, merged, abandoned
	Owner   string // username, email, or "self"
	Branch  string
	Watched bool
	Limit   int
}

// String renders the query in Gerrit search syntax
func (q Query) String() string {
	var terms []string
	if q.Status != "" {
		terms = append(terms, "status:"+strings.ToLower(q.Status))
	}
	if q.Owner != "" {
		terms = append(terms, "owner:"+q.Owner)
	}
	if q.Branch != "" {
		terms = append(terms, "branch:"+q.Branch)
	}
	if q.Watched {
		terms = append(terms, "is:watched")
	}
	return strings.Join(terms, " ")
}

// Client is the interface for review server interactions.
// Implementations map transport failures onto the sentinel errors in
// internal/errors (ErrNotFound, ErrAuthFailure, ErrNetwork, ErrConflict,
// ErrNotReady); callers dispatch with errors.Is.
type Client interface {
	// GetChange fetches a change by Change-Id or legacy number,
	// including all of its patch sets.
	GetChange(ctx context.Context, id string) (*Change, error)

	// GetPatchSets fetches the patch sets of a change, ascending by number
	GetPatchSets(ctx context.Context, id string) ([]PatchSet, error)

	// ListChanges queries changes matching the filters
	ListChanges(ctx context.Context, q Query) ([]Change, error)

	// PushPatchSet delivers a local commit as a new patch set of the change
	// and returns the patch set the server created for it
	PushPatchSet(ctx context.Context, changeID, commitSHA, parentRef string) (*PatchSet, error)

	// RebaseChange asks the server to rebase a change onto base
	// (onto the target branch head when base is empty)
	RebaseChange(ctx context.Context, id, base string) (*Change, error)

	// Submit submits a change for merging
	Submit(ctx context.Context, id string) error
}

// Pusher delivers a git refspec to the review server's git endpoint.
// It decouples the REST client from the local git layer.
type Pusher interface {
	PushRef(ctx context.Context, refspec string) error
}
