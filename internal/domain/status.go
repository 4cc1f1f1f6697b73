package domain

// TaskStatus represents one task lifecycle state.
type TaskStatus string

// StatusNew and related constants enumerate the task lifecycle.
const (
	StatusNew               TaskStatus = "new"
	StatusAssigned          TaskStatus = "assigned"
	StatusInProgress        TaskStatus = "in_progress"
	StatusAwaitingReview    TaskStatus = "awaiting_review"
	StatusRevisionsRequired TaskStatus = "revisions_required"
	StatusApproved          TaskStatus = "approved"
	StatusClientReview      TaskStatus = "client_review"
	StatusClientApproved    TaskStatus = "client_approved"
	StatusCompleted         TaskStatus = "completed"
)

var validTaskStatuses = []TaskStatus{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusAwaitingReview,
	StatusRevisionsRequired,
	StatusApproved,
	StatusClientReview,
	StatusClientApproved,
	StatusCompleted,
}

// validTaskTransitions captures the forward edges of the lifecycle. The
// backward edges are the revision re-entries out of revisions_required:
// back to awaiting_review when a chain step asked for the rework, straight
// to client_review when the client did.
var validTaskTransitions = map[TaskStatus]map[TaskStatus]bool{
	StatusNew: {
		StatusAssigned:   true,
		StatusInProgress: true,
	},
	StatusAssigned: {
		StatusInProgress:     true,
		StatusAwaitingReview: true,
		StatusCompleted:      true,
	},
	StatusInProgress: {
		StatusAwaitingReview: true,
		StatusCompleted:      true,
	},
	StatusAwaitingReview: {
		StatusApproved:          true,
		StatusRevisionsRequired: true,
		StatusClientReview:      true,
	},
	StatusRevisionsRequired: {
		StatusAwaitingReview: true,
		StatusClientReview:   true,
	},
	StatusApproved: {
		StatusCompleted: true,
	},
	StatusClientReview: {
		StatusClientApproved:    true,
		StatusRevisionsRequired: true,
	},
	StatusClientApproved: {
		StatusCompleted: true,
	},
	StatusCompleted: {},
}

// IsValidTaskStatus reports whether s names a known lifecycle state.
func IsValidTaskStatus(s TaskStatus) bool {
	for _, candidate := range validTaskStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	allowed, ok := validTaskTransitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}

// IsTerminal reports whether s permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return len(validTaskTransitions[s]) == 0
}

// PlanStatus represents one production plan state.
type PlanStatus string

// PlanStatusDraft and related constants enumerate the plan lifecycle.
const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusScheduled  PlanStatus = "scheduled"
	PlanStatusInProgress PlanStatus = "in_progress"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusArchived   PlanStatus = "archived"
)

// validPlanTransitions is monotonic except for the archive/restore pair.
var validPlanTransitions = map[PlanStatus]map[PlanStatus]bool{
	PlanStatusDraft: {
		PlanStatusScheduled: true,
		PlanStatusArchived:  true,
	},
	PlanStatusScheduled: {
		PlanStatusInProgress: true,
		PlanStatusArchived:   true,
	},
	PlanStatusInProgress: {
		PlanStatusCompleted: true,
		PlanStatusArchived:  true,
	},
	PlanStatusCompleted: {
		PlanStatusArchived: true,
	},
	PlanStatusArchived: {
		PlanStatusDraft: true,
	},
}

// CanTransitionTo reports whether the plan lifecycle allows moving from s to next.
func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	allowed, ok := validPlanTransitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}
