// Package session implements listing and mutation of Claude Code session logs.
//
// Mutations follow a backup-before-destroy policy: session files are retired
// into .bak directories rather than deleted, and every rewrite is atomic
// (write-then-rename). There is no locking between the read and write halves
// of a mutation; a concurrent writer racing a mutation is an accepted,
// documented risk of operating on externally owned files.
package session

import "errors"

// Precondition and lookup failures surfaced to adapters. Filesystem errors
// are wrapped and propagated as-is.
var (
	// ErrNotFound marks a missing project, session, or record.
	ErrNotFound = errors.New("not found")

	// ErrEmptySession marks an operation that requires at least one record.
	ErrEmptySession = errors.New("session is empty")

	// ErrNoUserMessage marks a rename on a session with no user record.
	ErrNoUserMessage = errors.New("no user message found")

	// ErrInvalidSplitPoint marks a split at the first record, which would
	// leave the original session empty.
	ErrInvalidSplitPoint = errors.New("cannot split at first message")
)
