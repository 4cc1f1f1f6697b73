package app

import (
	"context"

	"github.com/hylla/studioflow/internal/domain"
)

// Repository is the document-store port. Reads are field-filtered queries;
// single-document writes go through the matching Put/Delete methods, and
// multi-document writes that must land together go through Batch.
type Repository interface {
	PutProject(context.Context, domain.Project) error
	GetProject(context.Context, string) (domain.Project, error)

	PutUser(context.Context, domain.User) error
	GetUser(context.Context, string) (domain.User, error)
	ListUsers(context.Context) ([]domain.User, error)

	PutRole(context.Context, domain.Role) error
	GetRole(context.Context, string) (domain.Role, error)

	PutProjectMember(context.Context, domain.ProjectMember) error
	ListProjectMembers(context.Context, string) ([]domain.ProjectMember, error)

	PutLeaveRequest(context.Context, domain.LeaveRequest) error
	ListLeaveRequestsForUsers(context.Context, []string) ([]domain.LeaveRequest, error)

	PutWorkflowTemplate(context.Context, domain.WorkflowTemplate) error
	GetWorkflowTemplate(context.Context, string) (domain.WorkflowTemplate, error)

	GetTask(context.Context, string) (domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string, includeArchived bool) ([]domain.Task, error)
	ListTasksByPlan(ctx context.Context, planID string) ([]domain.Task, error)

	ListApprovalSteps(ctx context.Context, taskID string) ([]domain.ApprovalStep, error)
	GetClientApprovalByTask(ctx context.Context, taskID string) (domain.ClientApproval, error)

	GetSocialPost(context.Context, string) (domain.SocialPost, error)

	GetProductionPlan(context.Context, string) (domain.ProductionPlan, error)
	ListProductionPlans(context.Context) ([]domain.ProductionPlan, error)
	ListAssignmentsByPlan(ctx context.Context, planID string) ([]domain.ProductionAssignment, error)

	PutCalendarItem(context.Context, domain.CalendarItem) error
	GetCalendarItem(context.Context, string) (domain.CalendarItem, error)

	FindFolder(ctx context.Context, parentID, name string) (domain.Folder, error)
	PutFileRef(context.Context, domain.FileRef) error
	GetFileRef(context.Context, string) (domain.FileRef, error)
	DeleteFileRef(context.Context, string) error
	ListFileRefsByTask(ctx context.Context, taskID string) ([]domain.FileRef, error)
	ListFileRefsByPost(ctx context.Context, postID string) ([]domain.FileRef, error)

	// Batch applies every write recorded by fn as one atomic unit with no
	// intermediate visibility. On error no write is applied.
	Batch(ctx context.Context, fn func(tx BatchTx) error) error
}

// BatchTx records writes inside one atomic batch.
type BatchTx interface {
	PutTask(domain.Task) error
	PutApprovalStep(domain.ApprovalStep) error
	PutClientApproval(domain.ClientApproval) error
	PutSocialPost(domain.SocialPost) error
	PutProductionPlan(domain.ProductionPlan) error
	PutAssignment(domain.ProductionAssignment) error
	DeleteAssignmentsByPlan(planID string) error
	PutCalendarItem(domain.CalendarItem) error
	PutFolder(domain.Folder) error
	PutFileRef(domain.FileRef) error
}

// FileStore is the blob-store port used by reference attachments.
type FileStore interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// Notifier is the fire-and-forget notification sink. Delivery is best
// effort; failures never block or roll back a core transition.
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, kind, title, message string)
}
