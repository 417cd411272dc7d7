// Package engine implements the change-state reconciliation and rebase core.
//
// The engine maps local commits to remote changes by their embedded
// Change-Id (index.go), classifies every bound change against its latest
// patch set (reconcile.go), and rebases single changes or dependent chains
// onto a new base while keeping local history, remote history, and review
// metadata consistent (orchestrator.go).
//
// Everything here is rebuilt from current local and remote state on each
// invocation; the engine persists nothing, so staleness cannot outlive one
// command.
package engine
