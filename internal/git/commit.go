package git

import (
	"regexp"
	"strings"
)

// Commit is a read-only view of one commit in the local history
type Commit struct {
	SHA      string
	Parents  []string
	Author   string
	Subject  string
	Message  string
	ChangeID string // empty when the message carries no Change-Id trailer
}

// Parent returns the first parent SHA, or "" for a root commit.
// gcl never rebases merge commits, so the first parent is the one that matters.
func (c Commit) Parent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// changeIDRe matches a Change-Id trailer line
var changeIDRe = regexp.MustCompile(`(?m)^Change-Id:\s*(I[0-9a-f]{8,40})\s*$`)

// ParseChangeID extracts the Change-Id trailer from a commit message.
// When multiple trailers are present the last one wins, matching how the
// Gerrit commit-msg hook treats amended messages. Returns "" when absent.
func ParseChangeID(message string) string {
	matches := changeIDRe.FindAllStringSubmatch(message, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}

// firstLine returns the subject line of a commit message
func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}
