// Package errors provides sentinel errors and custom error types for gcl.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Is reports whether any error in err's chain matches target.
// Re-exported so callers need only this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// Re-exported so callers need only this package.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Sentinel errors for common conditions
var (
	// ErrAmbiguousChangeID indicates that two local commits embed the same Change-Id
	ErrAmbiguousChangeID = errors.New("ambiguous change-id")

	// ErrConflict indicates that a rebase or cherry-pick could not auto-merge
	ErrConflict = errors.New("merge conflict")

	// ErrRemoteAhead indicates that the remote has a newer patch set than the local copy
	ErrRemoteAhead = errors.New("remote is ahead")

	// ErrDiverged indicates that local and remote content differ and cannot be
	// reconciled by a pure rebase
	ErrDiverged = errors.New("change has diverged")

	// ErrNotFound indicates that no change exists for the given identifier
	ErrNotFound = errors.New("no such change")

	// ErrAuthFailure indicates that the review server rejected the credentials
	ErrAuthFailure = errors.New("authentication failed")

	// ErrNetwork indicates a transport-level failure talking to the review server
	ErrNetwork = errors.New("network error")

	// ErrNotReady indicates a submit was attempted on a change not in a mergeable state
	ErrNotReady = errors.New("change is not ready to submit")
)

// AmbiguousChangeIDError reports two local commits sharing one Change-Id.
// The user must amend one of the commits before gcl can proceed.
type AmbiguousChangeIDError struct {
	ChangeID string
	Commits  []string
}

func (e *AmbiguousChangeIDError) Error() string {
	return fmt.Sprintf("change-id %s is embedded by multiple local commits: %s",
		e.ChangeID, strings.Join(e.Commits, ", "))
}

// Is returns true if the target error is ErrAmbiguousChangeID
func (e *AmbiguousChangeIDError) Is(target error) bool {
	return target == ErrAmbiguousChangeID
}

// NewAmbiguousChangeIDError creates a new AmbiguousChangeIDError
func NewAmbiguousChangeIDError(changeID string, commits []string) *AmbiguousChangeIDError {
	return &AmbiguousChangeIDError{ChangeID: changeID, Commits: commits}
}

// ConflictError reports a cherry-pick or rebase that could not auto-merge.
// Paths lists the files left in a conflicted state.
type ConflictError struct {
	ChangeID string
	Paths    []string
}

func (e *ConflictError) Error() string {
	msg := "merge conflict"
	if e.ChangeID != "" {
		msg = fmt.Sprintf("merge conflict rebasing %s", e.ChangeID)
	}
	if len(e.Paths) > 0 {
		msg += fmt.Sprintf(" (in %s)", strings.Join(e.Paths, ", "))
	}
	return msg
}

// Is returns true if the target error is ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError
func NewConflictError(changeID string, paths []string) *ConflictError {
	return &ConflictError{ChangeID: changeID, Paths: paths}
}

// RemoteAheadError reports a change whose latest patch set is unknown locally.
// The local copy must be synced before any rebase is attempted.
type RemoteAheadError struct {
	ChangeID    string
	LocalSHA    string
	RemoteSHA   string
	PatchSetNum int
}

func (e *RemoteAheadError) Error() string {
	return fmt.Sprintf("change %s has patch set %d (%s) on the remote, local copy is at %s",
		e.ChangeID, e.PatchSetNum, e.RemoteSHA, e.LocalSHA)
}

// Is returns true if the target error is ErrRemoteAhead
func (e *RemoteAheadError) Is(target error) bool {
	return target == ErrRemoteAhead
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

// RemoteError wraps a failure reported by the review server, preserving the
// HTTP status for diagnostics while mapping onto one of the sentinel errors.
type RemoteError struct {
	StatusCode int
	Body       string
	Kind       error
}

func (e *RemoteError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + strings.TrimSpace(e.Body)
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Kind
}

// NewRemoteError creates a new RemoteError with the given sentinel kind
func NewRemoteError(kind error, statusCode int, body string) *RemoteError {
	return &RemoteError{StatusCode: statusCode, Body: body, Kind: kind}
}
