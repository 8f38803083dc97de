package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound signals a lookup miss that is fatal to the operation (an edge id
// or upload token that does not exist). Missing item *names* during tree
// building are not errors — they resolve to an empty name.
var ErrNotFound = errors.New("record not found")

// ValidationError covers invariant violations detected before any mutation:
// self-loops, duplicate (parent, child) pairs, deletions that would orphan a
// branch, and spreadsheet rows that cannot be resolved.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StructureError reports a corrupted edge set: a cycle reached during
// traversal. The edge data must be repaired before the operation can succeed.
type StructureError struct {
	ItemCode string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("composition cycle detected at item %s", e.ItemCode)
}

// BatchFailure is one failed id inside a best-effort batch delete.
type BatchFailure struct {
	ID     uuid.UUID
	Reason string
}

// BatchError aggregates the failures of a batch delete. Ids that validated
// successfully were deleted and are NOT rolled back; callers must re-query to
// learn which subset survived.
type BatchError struct {
	Failures []BatchFailure
}

func (e *BatchError) Error() string {
	lines := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		lines = append(lines, fmt.Sprintf("%s: %s", f.ID, f.Reason))
	}
	return strings.Join(lines, "\n")
}
