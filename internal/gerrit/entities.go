// Package gerrit provides a client for interacting with a Gerrit Code Review
// server over its REST API.
package gerrit

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Change statuses as reported by the server
const (
	StatusNew       = "NEW"
	StatusMerged    = "MERGED"
	StatusAbandoned = "ABANDONED"
)

// Account identifies a Gerrit user
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// String renders the account as "Name <email>"
func (a Account) String() string {
	if a.Email == "" {
		return a.Name
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Timestamp wraps time.Time to parse Gerrit's timestamp format,
// e.g. "2013-02-01 09:59:32.126000000" (UTC, no zone designator).
type Timestamp struct {
	time.Time
}

const timestampLayout = "2006-01-02 15:04:05.000000000"

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		return fmt.Errorf("invalid gerrit timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Time.UTC().Format(timestampLayout) + `"`), nil
}

// PatchSet is one revision of a change. Number is 1-based and strictly
// increases; the highest-numbered patch set is the one reviewers see.
type PatchSet struct {
	Number   int       // sequence number (_number)
	Revision string    // commit SHA of this patch set
	Parent   string    // commit SHA of the parent this patch set was built on
	Ref      string    // refs/changes/NN/<change>/<patchset>
	Created  time.Time // creation timestamp
}

// revisionInfo is the wire shape of one entry in a change's "revisions" map
type revisionInfo struct {
	Number  int        `json:"_number"`
	Ref     string     `json:"ref"`
	Created Timestamp  `json:"created"`
	Commit  commitInfo `json:"commit"`
}

type commitInfo struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Parents []struct {
		Commit string `json:"commit"`
	} `json:"parents"`
}

// Change is a remote review unit. ChangeID is the stable identifier embedded
// in the commit message trailer and is immutable across patch sets; Number is
// the server-assigned sequential id.
type Change struct {
	ID              string     `json:"id"` // "<project>~<branch>~<change-id>"
	ChangeID        string     `json:"change_id"`
	Number          int        `json:"_number"`
	Project         string     `json:"project"`
	Branch          string     `json:"branch"`
	Subject         string     `json:"subject"`
	Status          string     `json:"status"`
	Owner           Account    `json:"owner"`
	Created         Timestamp  `json:"created"`
	Updated         Timestamp  `json:"updated"`
	CurrentRevision string     `json:"current_revision"`
	PatchSets       []PatchSet `json:"-"`

	// Revisions is the raw wire map keyed by commit SHA.
	// PatchSets is derived from it by finalize.
	Revisions map[string]revisionInfo `json:"revisions"`
}

// finalize derives the ordered PatchSets slice from the wire revisions map.
// Called by the client after decoding.
func (c *Change) finalize() {
	if len(c.Revisions) == 0 {
		return
	}
	c.PatchSets = c.PatchSets[:0]
	for sha, rev := range c.Revisions {
		ps := PatchSet{
			Number:   rev.Number,
			Revision: sha,
			Ref:      rev.Ref,
			Created:  rev.Created.Time,
		}
		if len(rev.Commit.Parents) > 0 {
			ps.Parent = rev.Commit.Parents[0].Commit
		}
		c.PatchSets = append(c.PatchSets, ps)
	}
	sort.Slice(c.PatchSets, func(i, j int) bool {
		return c.PatchSets[i].Number < c.PatchSets[j].Number
	})
}

// LatestPatchSet returns the highest-numbered patch set, or nil when the
// server response did not include revisions.
func (c *Change) LatestPatchSet() *PatchSet {
	if len(c.PatchSets) == 0 {
		return nil
	}
	return &c.PatchSets[len(c.PatchSets)-1]
}

// PatchSetFor returns the patch set whose revision is the given commit SHA,
// or nil when no patch set matches.
func (c *Change) PatchSetFor(sha string) *PatchSet {
	for i := range c.PatchSets {
		if c.PatchSets[i].Revision == sha {
			return &c.PatchSets[i]
		}
	}
	return nil
}

// IsOpen reports whether the change can still receive patch sets
func (c *Change) IsOpen() bool {
	return c.Status == StatusNew
}
