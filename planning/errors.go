/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All engine error types in one place. Callers classify with errors.Is
  and the helpers below; the API layer maps classes to HTTP statuses.

ERROR CATEGORIES:
  1. Validation errors - malformed generation input, rejected before any
     state is created
  2. Not-found errors - edit/delete referencing an unknown id, treated
     as a reported no-op
  3. Persistence errors - save round-trip failure, recoverable; the
     in-memory state is retained so the caller may retry

SEE ALSO:
  - generator.go: Produces ValidationError
  - inventory: Produces not-found and persistence errors
*/
package planning

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is the class of all generation input failures.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrTaskGroupNotFound is returned when an edit/delete references an
	// unknown task group. The operation is a no-op.
	ErrTaskGroupNotFound = errors.New("task group not found")

	// ErrOfferGroupNotFound is returned when an offer update references an
	// unknown offer group.
	ErrOfferGroupNotFound = errors.New("offer group not found")

	// ErrElementNotFound is returned when a referenced element doesn't exist.
	ErrElementNotFound = errors.New("element not found")

	// ErrSpaceNotFound is returned when a referenced space doesn't exist.
	ErrSpaceNotFound = errors.New("space not found")

	// ErrTaskNotFound is returned when a task update references an unknown task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDefectNotFound is returned when a defect removal references an
	// unknown defect.
	ErrDefectNotFound = errors.New("defect not found")

	// ErrSaveFailed is the class of persistence round-trip failures.
	ErrSaveFailed = errors.New("save failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a fatal generation input problem. It is
// reported to the caller synchronously; no partial state is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid generation request: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// PersistenceError reports a failed save round-trip. The store's
// in-memory state is unchanged when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save failed: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrSaveFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskGroupNotFound) ||
		errors.Is(err, ErrOfferGroupNotFound) ||
		errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrSpaceNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrDefectNotFound)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSaveFailed)
}
