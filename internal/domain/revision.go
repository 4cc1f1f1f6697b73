package domain

import "time"

// RevisionContext is the active revision overlay on a task. At most one
// context is active per task at a time; Cycle correlates it with the
// append-only RevisionHistory log.
type RevisionContext struct {
	Active            bool
	Cycle             int
	RequestedByUserID string
	RequestedByStepID string
	AssignedToUserID  string
	Message           string
	RequestedAt       time.Time
}

// RevisionEntry is one record in a task's append-only revision log.
type RevisionEntry struct {
	Cycle             int
	RequestedByUserID string
	AssignedToUserID  string
	Message           string
	RequestedAt       time.Time
	ResolvedAt        *time.Time
}
