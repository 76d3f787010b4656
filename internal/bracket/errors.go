package bracket

import "errors"

var (
	// Operation attempted from a state that forbids it
	ErrInvalidState = errors.New("invalid state")
	// Uniqueness or exclusivity violation: names, players, occupied slots
	ErrConflict = errors.New("conflict")
	// Aggregate precondition not met, e.g. wrong team count to start
	ErrPreconditionFailed = errors.New("precondition failed")
	// Undo attempted after the undo window closed
	ErrWindowExpired = errors.New("undo window expired")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")

	// An internal invariant broke. Indicates a serialization failure and should alert.
	ErrInconsistent = errors.New("inconsistent bracket state")
)
