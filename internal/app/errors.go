package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
// The first three map loosely onto distinct user-visible failure classes:
// "you're not allowed", "this isn't possible right now", and "try again".
var (
	ErrNotFound             = errors.New("not found")
	ErrNotAuthorized        = errors.New("not authorized to advance")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrUnassignedApprover   = errors.New("approver could not be resolved")
	ErrNoActiveGate         = errors.New("no pending approval step")
	ErrNoActiveRevision     = errors.New("no active revision context")
	ErrRestoreWindowExpired = errors.New("restore window has expired")
	ErrMissingJustification = errors.New("force reassignment requires a justification")
	ErrInvalidRevisionee    = errors.New("revision assignee must be a current assignee or prior approver")
	ErrStepsAlreadyExist    = errors.New("approval steps already generated")
	ErrLeaveConflict        = errors.New("team member has an approved leave conflict")
	ErrAlreadyArchived      = errors.New("already archived")
	ErrNotArchived          = errors.New("not archived")
)
