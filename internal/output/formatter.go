package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"gcl.dev/gcl/internal/engine"
	"gcl.dev/gcl/internal/gerrit"
)

var (
	heading    = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
	koColor    = color.New(color.FgRed)
	dimColor   = color.New(color.Faint)
	identColor = color.New(color.FgCyan)
)

// FormatChange renders a change summary:
//
//	change-id I1234...
//	Number:  4221
//	Owner:   John Doe <john@doe.com>
//	Subject: Implement the REBASE command
func FormatChange(c *gerrit.Change) string {
	var b strings.Builder
	fmt.Fprintln(&b, heading.Sprintf("change-id %s", c.ChangeID))
	fmt.Fprintf(&b, "Number:  %d\n", c.Number)
	fmt.Fprintf(&b, "Owner:   %s\n", c.Owner)
	fmt.Fprintf(&b, "Subject: %s", c.Subject)
	return b.String()
}

// FormatChangeDetail renders a change with status, branch, and patch sets
func FormatChangeDetail(c *gerrit.Change) string {
	var b strings.Builder
	fmt.Fprintln(&b, FormatChange(c))
	fmt.Fprintf(&b, "Branch:  %s\n", c.Branch)
	fmt.Fprintf(&b, "Status:  %s\n", formatStatus(c.Status))
	for i := range c.PatchSets {
		ps := &c.PatchSets[i]
		marker := " "
		if ps.Revision == c.CurrentRevision {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s patch set %d  %s  %s\n",
			marker, ps.Number, identColor.Sprint(shortSHA(ps.Revision)),
			dimColor.Sprint(ps.Created.Format("2006-01-02 15:04")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStatus(status string) string {
	switch status {
	case gerrit.StatusMerged:
		return okColor.Sprint(status)
	case gerrit.StatusAbandoned:
		return koColor.Sprint(status)
	default:
		return status
	}
}

// FormatReport renders the per-change outcome of a rebase session
func FormatReport(report *engine.Report) string {
	var b strings.Builder
	for i := range report.Results {
		res := &report.Results[i]
		fmt.Fprintf(&b, "%-12s %s", formatState(res.State), res.ChangeID)
		switch res.State {
		case engine.Rebased:
			fmt.Fprintf(&b, "  patch set %d (%s)",
				res.NewPatchSet.Number, shortSHA(res.NewCommit))
		case engine.Conflicted:
			if len(res.ConflictPaths) > 0 {
				fmt.Fprintf(&b, "  conflicts: %s", strings.Join(res.ConflictPaths, ", "))
			}
		}
		fmt.Fprintln(&b)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatState(state engine.State) string {
	switch state {
	case engine.Rebased:
		return okColor.Sprint(state)
	case engine.Skipped:
		return dimColor.Sprint(state)
	case engine.Conflicted:
		return koColor.Sprint(state)
	case engine.Blocked:
		return koColor.Sprint(state)
	default:
		return state.String()
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
