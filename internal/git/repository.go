package git

import (
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Repository wraps a go-git repository for read access to local history.
// Mutating operations (cherry-pick, checkout, ref updates) go through
// Operations, which shells out to git.
type Repository struct {
	*gogit.Repository
	path string
}

// OpenRepository opens the git repository containing path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	return &Repository{Repository: repo, path: absPath}, nil
}

// Root returns the directory the repository was opened at
func (r *Repository) Root() string {
	return r.path
}

// CurrentBranch returns the short name of the branch HEAD is on
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not on a branch")
	}
	return head.Name().Short(), nil
}

// Resolve resolves a revision (branch, tag, SHA, HEAD) to a commit SHA
func (r *Repository) Resolve(rev string) (string, error) {
	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return hash.String(), nil
}

// ListCommits returns the commits in base..head, oldest first.
// These are the commits the reconciliation engine binds to remote changes.
func (r *Repository) ListCommits(base, head string) ([]Commit, error) {
	headSHA, err := r.Resolve(head)
	if err != nil {
		return nil, err
	}
	baseSHA := ""
	if base != "" {
		baseSHA, err = r.Resolve(base)
		if err != nil {
			return nil, err
		}
	}

	iter, err := r.Log(&gogit.LogOptions{From: plumbing.NewHash(headSHA)})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.Hash.String() == baseSHA {
			return storer.ErrStop
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk history: %w", err)
	}

	// Walk order is newest first; the engine wants dependency order
	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}
	return commits, nil
}

// GetCommit reads a single commit by SHA
func (r *Repository) GetCommit(sha string) (Commit, error) {
	c, err := r.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return Commit{}, fmt.Errorf("failed to read commit %s: %w", sha, err)
	}
	return toCommit(c), nil
}

// MergeBase returns the best common ancestor of two revisions
func (r *Repository) MergeBase(rev1, rev2 string) (string, error) {
	sha1, err := r.Resolve(rev1)
	if err != nil {
		return "", err
	}
	sha2, err := r.Resolve(rev2)
	if err != nil {
		return "", err
	}

	c1, err := r.CommitObject(plumbing.NewHash(sha1))
	if err != nil {
		return "", err
	}
	c2, err := r.CommitObject(plumbing.NewHash(sha2))
	if err != nil {
		return "", err
	}

	bases, err := c1.MergeBase(c2)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no common ancestor between %s and %s", rev1, rev2)
	}
	return bases[0].Hash.String(), nil
}

// toCommit converts a go-git commit to the local view
func toCommit(c *object.Commit) Commit {
	commit := Commit{
		SHA:      c.Hash.String(),
		Author:   fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
		Subject:  firstLine(c.Message),
		Message:  c.Message,
		ChangeID: ParseChangeID(c.Message),
	}
	for _, parent := range c.ParentHashes {
		commit.Parents = append(commit.Parents, parent.String())
	}
	return commit
}
