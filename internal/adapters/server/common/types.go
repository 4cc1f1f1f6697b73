// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hylla/studioflow/internal/app"
	"github.com/hylla/studioflow/internal/domain"
)

// WorkflowService captures the app operations exposed by transport adapters.
type WorkflowService interface {
	CreateTask(ctx context.Context, in app.CreateTaskInput) (domain.Task, error)
	GetTask(ctx context.Context, taskID string) (domain.Task, error)
	ListTasks(ctx context.Context, projectID string, includeArchived bool) ([]domain.Task, error)
	ListApprovalSteps(ctx context.Context, taskID string) ([]domain.ApprovalStep, error)

	StartTask(ctx context.Context, taskID, actorID string) (domain.Task, error)
	SubmitTask(ctx context.Context, taskID, actorID string) (domain.Task, error)
	ApproveStep(ctx context.Context, taskID, actorID, comment string) (domain.Task, error)
	RequestRevision(ctx context.Context, taskID, actorID, message, revisorID string) (domain.Task, error)
	ResolveClientApproval(ctx context.Context, taskID, actorID string, approved bool, comment, revisorID string) (domain.Task, error)
	CompleteTask(ctx context.Context, taskID, actorID string) (domain.Task, error)
	ArchiveTask(ctx context.Context, taskID, actorID string) (domain.Task, error)
	RestoreTask(ctx context.Context, taskID, actorID string) (domain.Task, error)
	ArchiveSocialPost(ctx context.Context, postID, actorID string) (domain.SocialPost, error)

	CreateWorkflowTemplate(ctx context.Context, name string, steps []domain.WorkflowStep, requiresClientApproval bool) (domain.WorkflowTemplate, error)
	CreateUser(ctx context.Context, name, email, department string, roleIDs []string) (domain.User, error)
	CreateProject(ctx context.Context, clientID, name, description string) (domain.Project, error)
	AddProjectMember(ctx context.Context, projectID, userID, roleInProject string) (domain.ProjectMember, error)

	GeneratePlan(ctx context.Context, in app.GeneratePlanInput, actorID string) (domain.ProductionPlan, []app.DuplicateWarning, error)
	EditPlan(ctx context.Context, in app.EditPlanInput, actorID string) (domain.ProductionPlan, []app.DuplicateWarning, error)
	DetectPlanDuplicates(ctx context.Context, plan domain.ProductionPlan) ([]app.DuplicateWarning, error)
	ArchivePlan(ctx context.Context, planID, actorID string) (domain.ProductionPlan, error)
	RestorePlan(ctx context.Context, planID, actorID string) (domain.ProductionPlan, error)
	GetProductionPlan(ctx context.Context, planID string) (domain.ProductionPlan, error)

	AttachFileToTask(ctx context.Context, taskID, name string, data []byte) (domain.FileRef, error)
	RemoveFile(ctx context.Context, fileID string) error
}

// TaskView is the wire shape for one task.
type TaskView struct {
	ID                   string         `json:"id"`
	ProjectID            string         `json:"project_id"`
	ClientID             string         `json:"client_id,omitempty"`
	Title                string         `json:"title"`
	Description          string         `json:"description,omitempty"`
	Priority             string         `json:"priority"`
	Status               string         `json:"status"`
	AssigneeIDs          []string       `json:"assignee_ids"`
	WorkflowTemplateID   string         `json:"workflow_template_id,omitempty"`
	CurrentApprovalLevel int            `json:"current_approval_level"`
	Revision             *RevisionView  `json:"revision,omitempty"`
	RevisionHistory      []RevisionView `json:"revision_history,omitempty"`
	RequiresSocialPost   bool           `json:"requires_social_post"`
	SocialPostID         string         `json:"social_post_id,omitempty"`
	Platforms            []string       `json:"platforms,omitempty"`
	ProductionPlanID     string         `json:"production_plan_id,omitempty"`
	ReassignNote         string         `json:"reassign_note,omitempty"`
	DueAt                *time.Time     `json:"due_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	ArchivedAt           *time.Time     `json:"archived_at,omitempty"`
}

// RevisionView is the wire shape for one revision cycle, active or historic.
type RevisionView struct {
	Cycle             int        `json:"cycle"`
	RequestedByUserID string     `json:"requested_by_user_id"`
	AssignedToUserID  string     `json:"assigned_to_user_id"`
	Message           string     `json:"message,omitempty"`
	RequestedAt       time.Time  `json:"requested_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// StepView is the wire shape for one approval step.
type StepView struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	Level      int        `json:"level"`
	Name       string     `json:"name,omitempty"`
	ApproverID string     `json:"approver_id"`
	Status     string     `json:"status"`
	Comment    string     `json:"comment,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// PlanView is the wire shape for one production plan.
type PlanView struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	ProjectID        string     `json:"project_id"`
	ProductionDate   time.Time  `json:"production_date"`
	CalendarItemIDs  []string   `json:"calendar_item_ids,omitempty"`
	ManualTaskIDs    []string   `json:"manual_task_ids,omitempty"`
	TeamMemberIDs    []string   `json:"team_member_ids"`
	GeneratedTaskIDs []string   `json:"generated_task_ids"`
	Status           string     `json:"status"`
	ArchivedAt       *time.Time `json:"archived_at,omitempty"`
	CanRestoreUntil  *time.Time `json:"can_restore_until,omitempty"`
}

// DuplicateWarningView is the wire shape for one duplicate-source warning.
type DuplicateWarningView struct {
	ItemID  string   `json:"item_id"`
	Kind    string   `json:"kind"`
	PlanIDs []string `json:"plan_ids"`
}

// PostView is the wire shape for one social post.
type PostView struct {
	ID              string     `json:"id"`
	SourceTaskID    string     `json:"source_task_id"`
	ClientID        string     `json:"client_id,omitempty"`
	Title           string     `json:"title"`
	Platforms       []string   `json:"platforms,omitempty"`
	SocialManagerID string     `json:"social_manager_id,omitempty"`
	Status          string     `json:"status"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
}

// FileRefView is the wire shape for one stored file record.
type FileRefView struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id,omitempty"`
	PostID string `json:"post_id,omitempty"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// NewTaskView converts one domain task to its wire shape.
func NewTaskView(t domain.Task) TaskView {
	view := TaskView{
		ID:                   t.ID,
		ProjectID:            t.ProjectID,
		ClientID:             t.ClientID,
		Title:                t.Title,
		Description:          t.Description,
		Priority:             string(t.Priority),
		Status:               string(t.Status),
		AssigneeIDs:          append([]string{}, t.AssigneeIDs...),
		WorkflowTemplateID:   t.WorkflowTemplateID,
		CurrentApprovalLevel: t.CurrentApprovalLevel,
		RequiresSocialPost:   t.RequiresSocialPost,
		SocialPostID:         t.SocialPostID,
		Platforms:            append([]string(nil), t.Platforms...),
		ProductionPlanID:     t.ProductionPlanID,
		ReassignNote:         t.ReassignNote,
		DueAt:                t.DueAt,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
		CompletedAt:          t.CompletedAt,
		ArchivedAt:           t.ArchivedAt,
	}
	if t.Revision != nil {
		view.Revision = &RevisionView{
			Cycle:             t.Revision.Cycle,
			RequestedByUserID: t.Revision.RequestedByUserID,
			AssignedToUserID:  t.Revision.AssignedToUserID,
			Message:           t.Revision.Message,
			RequestedAt:       t.Revision.RequestedAt,
		}
	}
	for _, entry := range t.RevisionHistory {
		view.RevisionHistory = append(view.RevisionHistory, RevisionView{
			Cycle:             entry.Cycle,
			RequestedByUserID: entry.RequestedByUserID,
			AssignedToUserID:  entry.AssignedToUserID,
			Message:           entry.Message,
			RequestedAt:       entry.RequestedAt,
			ResolvedAt:        entry.ResolvedAt,
		})
	}
	return view
}

// NewStepViews converts approval steps to their wire shape.
func NewStepViews(steps []domain.ApprovalStep) []StepView {
	out := make([]StepView, 0, len(steps))
	for _, step := range steps {
		out = append(out, StepView{
			ID:         step.ID,
			TaskID:     step.TaskID,
			Level:      step.Level,
			Name:       step.Name,
			ApproverID: step.ApproverID,
			Status:     string(step.Status),
			Comment:    step.Comment,
			ReviewedAt: step.ReviewedAt,
		})
	}
	return out
}

// NewPlanView converts one production plan to its wire shape.
func NewPlanView(p domain.ProductionPlan) PlanView {
	return PlanView{
		ID:               p.ID,
		Name:             p.Name,
		ProjectID:        p.ProjectID,
		ProductionDate:   p.ProductionDate,
		CalendarItemIDs:  append([]string(nil), p.CalendarItemIDs...),
		ManualTaskIDs:    append([]string(nil), p.ManualTaskIDs...),
		TeamMemberIDs:    append([]string{}, p.TeamMemberIDs...),
		GeneratedTaskIDs: append([]string{}, p.GeneratedTaskIDs...),
		Status:           string(p.Status),
		ArchivedAt:       p.ArchivedAt,
		CanRestoreUntil:  p.CanRestoreUntil,
	}
}

// NewDuplicateWarningViews converts duplicate warnings to their wire shape.
func NewDuplicateWarningViews(warnings []app.DuplicateWarning) []DuplicateWarningView {
	out := make([]DuplicateWarningView, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, DuplicateWarningView{
			ItemID:  w.ItemID,
			Kind:    string(w.Kind),
			PlanIDs: append([]string{}, w.PlanIDs...),
		})
	}
	return out
}

// NewPostView converts one social post to its wire shape.
func NewPostView(p domain.SocialPost) PostView {
	return PostView{
		ID:              p.ID,
		SourceTaskID:    p.SourceTaskID,
		ClientID:        p.ClientID,
		Title:           p.Title,
		Platforms:       append([]string(nil), p.Platforms...),
		SocialManagerID: p.SocialManagerID,
		Status:          string(p.Status),
		ArchivedAt:      p.ArchivedAt,
	}
}

// NewFileRefView converts one file record to its wire shape.
func NewFileRefView(ref domain.FileRef) FileRefView {
	return FileRefView{
		ID:     ref.ID,
		TaskID: ref.TaskID,
		PostID: ref.PostID,
		Name:   ref.Name,
		Path:   ref.Path,
	}
}

// ErrorCode maps service errors onto stable transport error codes.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "internal_error"
	case errors.Is(err, app.ErrNotFound):
		return "not_found"
	case errors.Is(err, app.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, app.ErrUnassignedApprover):
		return "unassigned_approver"
	case errors.Is(err, app.ErrLeaveConflict):
		return "leave_conflict"
	case errors.Is(err, app.ErrMissingJustification):
		return "missing_justification"
	case errors.Is(err, app.ErrInvalidRevisionee):
		return "invalid_revisionee"
	case errors.Is(err, app.ErrRestoreWindowExpired):
		return "restore_window_expired"
	case errors.Is(err, app.ErrInvalidTransition),
		errors.Is(err, app.ErrNoActiveGate),
		errors.Is(err, app.ErrNoActiveRevision),
		errors.Is(err, app.ErrStepsAlreadyExist),
		errors.Is(err, app.ErrAlreadyArchived),
		errors.Is(err, app.ErrNotArchived):
		return "invalid_transition"
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidStepKind),
		errors.Is(err, domain.ErrInvalidStepOrder),
		errors.Is(err, domain.ErrInvalidAssignee),
		errors.Is(err, domain.ErrInvalidMessage),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidRoster):
		return "invalid_request"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps a transport error code onto an HTTP status.
func HTTPStatus(code string) int {
	switch code {
	case "not_found":
		return http.StatusNotFound
	case "not_authorized":
		return http.StatusForbidden
	case "invalid_request":
		return http.StatusBadRequest
	case "invalid_transition", "unassigned_approver", "leave_conflict",
		"missing_justification", "invalid_revisionee", "restore_window_expired":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
