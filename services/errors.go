package services

import "errors"

// Workflow error taxonomy. Handlers map these onto HTTP status codes;
// everything here is checked before any record is mutated, so a failed
// transition never leaves a half-applied state behind.
var (
	// ErrStageMismatch means the caller's idea of the current stage is stale.
	// Recoverable: re-fetch the entity and retry.
	ErrStageMismatch = errors.New("workflow stage mismatch, entity was updated by someone else")

	// ErrInvalidParentState means the entity is already approved or rejected.
	// Not recoverable by retry; requires a new entity (e.g. a revision).
	ErrInvalidParentState = errors.New("entity is in a terminal state")

	// ErrMissingRequiredField means the advance/reject payload is incomplete.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrAlreadyCompleted means a ledger step was completed twice.
	ErrAlreadyCompleted = errors.New("workflow step already completed")

	// ErrStaleStep means a step completion arrived for a step type that no
	// longer matches the parent's current stage.
	ErrStaleStep = errors.New("workflow step is stale relative to parent stage")
)
