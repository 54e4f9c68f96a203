// Package apperr defines the error taxonomy shared by all engine components.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creation would overwrite an existing document.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when an expected checksum does not match the
	// current on-disk content (stale caller state).
	ErrConflict = errors.New("content checksum mismatch")
	// ErrPathTraversal is returned for paths containing ".." segments.
	ErrPathTraversal = errors.New("path traversal rejected")
	// ErrOutOfBounds is returned when a resolved path escapes the knowledge root.
	ErrOutOfBounds = errors.New("path escapes knowledge root")
	// ErrSectionNotFound is returned when no heading carries the requested section ID.
	ErrSectionNotFound = errors.New("section not found")
	// ErrLockMismatch is returned when the expected title does not match the
	// target heading (stale outline).
	ErrLockMismatch = errors.New("section title lock mismatch")
	// ErrNoHistory is returned when a document has no snapshots yet.
	ErrNoHistory = errors.New("no history")
)

// AmbiguousPathError is returned when fuzzy path resolution finds more than
// one candidate. Candidates lists every match so the caller can retry with a
// fully qualified path.
type AmbiguousPathError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("path %q is ambiguous, matches: %s", e.Query, strings.Join(e.Candidates, ", "))
}
