package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrRejected indicates a well-formed operation that is currently disallowed
// by business state (closed period, already-reversed entry, finalized session).
var ErrRejected = errors.New("operation rejected")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInternal indicates an infrastructure failure or a broken internal
// invariant. Callers should treat it as a bug, not a user error.
var ErrInternal = errors.New("internal error")

// Reconciliation-specific sentinels. They mirror the ledger taxonomy but keep
// their own identities so the reconciliation handlers can map them precisely.
var (
	// ErrSessionNotFound indicates the reconciliation session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCandidateNotFound indicates the match candidate does not exist in the session.
	ErrCandidateNotFound = errors.New("candidate not found")

	// ErrInvalidTransition indicates a candidate or session state change the
	// state machine does not permit.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrStorage indicates a reconciliation store failure.
	ErrStorage = errors.New("storage error")
)
