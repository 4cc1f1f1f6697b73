package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority represents one task priority band.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// SourceType marks how a production-generated task copy originated.
type SourceType string

const (
	SourceNone     SourceType = ""
	SourceCalendar SourceType = "calendar"
	SourceTask     SourceType = "task"
)

// Task is the central entity driven by the approval workflow engine.
type Task struct {
	ID          string
	ProjectID   string
	ClientID    string
	Title       string
	Description string
	VoiceOver   string
	Department  string
	TaskType    string
	Priority    Priority

	Status               TaskStatus
	AssigneeIDs          []string
	WorkflowTemplateID   string
	CurrentApprovalLevel int
	// ClientApprovalRequired is derived from the workflow template at
	// creation and frozen thereafter.
	ClientApprovalRequired bool

	Revision        *RevisionContext
	RevisionHistory []RevisionEntry

	RequiresSocialPost bool
	SocialPostID       string
	Platforms          []string
	SocialManagerID    string
	Notes              string

	ProductionPlanID     string
	SourceType           SourceType
	SourceCalendarItemID string
	SourceTaskID         string
	ReassignNote         string

	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	ArchivedAt  *time.Time
}

// TaskInput holds input values for constructing a task.
type TaskInput struct {
	ID                 string
	ProjectID          string
	ClientID           string
	Title              string
	Description        string
	VoiceOver          string
	Department         string
	TaskType           string
	Priority           Priority
	Status             TaskStatus
	AssigneeIDs        []string
	WorkflowTemplateID string
	RequiresSocialPost bool
	Platforms          []string
	SocialManagerID    string
	Notes              string
	DueAt              *time.Time
}

// NewTask constructs a validated task. The initial status rule lives in the
// app layer; when Status is unset a workflow-bearing task starts in_progress
// and a workflow-less one starts assigned.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Title = strings.TrimSpace(in.Title)
	in.WorkflowTemplateID = strings.TrimSpace(in.WorkflowTemplateID)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ProjectID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}
	if in.Status == "" {
		if in.WorkflowTemplateID != "" {
			in.Status = StatusInProgress
		} else {
			in.Status = StatusAssigned
		}
	}
	if !IsValidTaskStatus(in.Status) {
		return Task{}, ErrInvalidStatus
	}

	return Task{
		ID:                 in.ID,
		ProjectID:          in.ProjectID,
		ClientID:           strings.TrimSpace(in.ClientID),
		Title:              in.Title,
		Description:        strings.TrimSpace(in.Description),
		VoiceOver:          strings.TrimSpace(in.VoiceOver),
		Department:         strings.TrimSpace(in.Department),
		TaskType:           strings.TrimSpace(in.TaskType),
		Priority:           in.Priority,
		Status:             in.Status,
		AssigneeIDs:        normalizeIDSet(in.AssigneeIDs),
		WorkflowTemplateID: in.WorkflowTemplateID,
		RequiresSocialPost: in.RequiresSocialPost,
		Platforms:          normalizeIDSet(in.Platforms),
		SocialManagerID:    strings.TrimSpace(in.SocialManagerID),
		Notes:              strings.TrimSpace(in.Notes),
		DueAt:              normalizeDueAt(in.DueAt),
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}, nil
}

// HasWorkflow reports whether the task rides an approval chain.
func (t *Task) HasWorkflow() bool {
	return t.WorkflowTemplateID != ""
}

// IsArchived reports whether the task is parked in the archive.
func (t *Task) IsArchived() bool {
	return t.ArchivedAt != nil
}

// HasAssignee reports whether userID is in the current assignee pool.
func (t *Task) HasAssignee(userID string) bool {
	return slices.Contains(t.AssigneeIDs, userID)
}

// SetStatus moves the task to next, enforcing the lifecycle transition table.
func (t *Task) SetStatus(next TaskStatus, now time.Time) error {
	if t.IsArchived() {
		return ErrArchivedImmutable
	}
	if !t.Status.CanTransitionTo(next) {
		return ErrInvalidStatus
	}
	t.Status = next
	t.UpdatedAt = now.UTC()
	return nil
}

// ReplaceAssignees swaps the assignee pool for exactly the given users.
func (t *Task) ReplaceAssignees(userIDs []string, now time.Time) error {
	normalized := normalizeIDSet(userIDs)
	if len(normalized) == 0 {
		return ErrInvalidAssignee
	}
	t.AssigneeIDs = normalized
	t.UpdatedAt = now.UTC()
	return nil
}

// UnionAssignees adds the given users to the assignee pool, keeping it a set.
func (t *Task) UnionAssignees(userIDs []string, now time.Time) {
	t.AssigneeIDs = normalizeIDSet(append(slices.Clone(t.AssigneeIDs), userIDs...))
	t.UpdatedAt = now.UTC()
}

// Complete stamps terminal completion.
func (t *Task) Complete(now time.Time) {
	ts := now.UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &ts
	t.UpdatedAt = ts
}

// LinkSocialPost records the downstream artifact reference, set exactly once.
func (t *Task) LinkSocialPost(postID string) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return ErrInvalidID
	}
	if t.SocialPostID != "" {
		return ErrSocialPostExists
	}
	t.SocialPostID = postID
	return nil
}

// ClearTerminalStamps removes completion and archive residue so the task is
// visible in active lists again.
func (t *Task) ClearTerminalStamps(now time.Time) {
	t.CompletedAt = nil
	t.ArchivedAt = nil
	t.UpdatedAt = now.UTC()
}

// Archive stamps the task as archived. Archived tasks reject every mutation
// except Restore.
func (t *Task) Archive(now time.Time) {
	ts := now.UTC()
	t.ArchivedAt = &ts
	t.UpdatedAt = ts
}

// Restore clears archive stamps and returns the task to active lists.
func (t *Task) Restore(now time.Time) {
	t.ArchivedAt = nil
	t.UpdatedAt = now.UTC()
}

// BeginRevision installs a new active revision context and appends the
// matching history entry. Cycles number from one and never reuse.
func (t *Task) BeginRevision(requestedBy, requestedByStepID, assignedTo, message string, now time.Time) error {
	if t.Revision != nil && t.Revision.Active {
		return ErrRevisionActive
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return ErrInvalidMessage
	}
	assignedTo = strings.TrimSpace(assignedTo)
	if assignedTo == "" {
		return ErrInvalidAssignee
	}
	cycle := len(t.RevisionHistory) + 1
	ts := now.UTC()
	t.Revision = &RevisionContext{
		Active:            true,
		Cycle:             cycle,
		RequestedByUserID: requestedBy,
		RequestedByStepID: requestedByStepID,
		AssignedToUserID:  assignedTo,
		Message:           message,
		RequestedAt:       ts,
	}
	t.RevisionHistory = append(t.RevisionHistory, RevisionEntry{
		Cycle:             cycle,
		RequestedByUserID: requestedBy,
		AssignedToUserID:  assignedTo,
		Message:           message,
		RequestedAt:       ts,
	})
	t.UpdatedAt = ts
	return nil
}

// MarkRevisionResolved annotates the history entry for the active cycle.
// The context itself stays active so reviewers still see what was asked for
// while the resubmission awaits re-review. History entries are never deleted
// or rewritten, only annotated.
func (t *Task) MarkRevisionResolved(now time.Time) {
	if t.Revision == nil {
		return
	}
	ts := now.UTC()
	for i := range t.RevisionHistory {
		if t.RevisionHistory[i].Cycle == t.Revision.Cycle && t.RevisionHistory[i].ResolvedAt == nil {
			t.RevisionHistory[i].ResolvedAt = &ts
		}
	}
	t.UpdatedAt = ts
}

// DeactivateRevision flips the active context off. Approval of the step that
// requested the revision resolves the outstanding ask.
func (t *Task) DeactivateRevision(now time.Time) {
	if t.Revision == nil || !t.Revision.Active {
		return
	}
	t.MarkRevisionResolved(now)
	t.Revision.Active = false
	t.UpdatedAt = now.UTC()
}

// normalizeIDSet trims, de-duplicates, and drops empties while keeping order.
func normalizeIDSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// normalizeDueAt handles normalize due at.
func normalizeDueAt(dueAt *time.Time) *time.Time {
	if dueAt == nil {
		return nil
	}
	ts := dueAt.UTC().Truncate(time.Second)
	return &ts
}
