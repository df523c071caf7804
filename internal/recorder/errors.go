package recorder

import (
	"fmt"

	"github.com/mauv0809/smash-ladder/internal/league"
)

// ValidationError means the submission was rejected before any mutation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid match: " + e.Reason
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError means a player disappeared between validation and apply.
// Nothing from the submission was persisted.
type NotFoundError struct {
	PlayerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("player %s no longer exists", e.PlayerID)
}

func (e *NotFoundError) Unwrap() error {
	return league.ErrPlayerNotFound
}

// StorageError means the store failed while reading or applying.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
