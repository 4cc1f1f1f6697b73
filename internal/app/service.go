package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hylla/studioflow/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service owns the task approval workflow engine and the production plan
// engine. Every transition takes the acting user's identity explicitly; the
// caller is trusted to have evaluated permission codes already, and the
// service re-verifies only structural identity (assignee/approver checks).
type Service struct {
	repo     Repository
	files    FileStore
	notifier Notifier
	idGen    IDGenerator
	clock    Clock
}

// NewService constructs a new value for this package.
func NewService(repo Repository, files FileStore, notifier Notifier, idGen IDGenerator, clock Clock) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:     repo,
		files:    files,
		notifier: notifier,
		idGen:    idGen,
		clock:    clock,
	}
}

// notify fans out a best-effort notification. Failures never surface; the
// sink is fire-and-forget by contract.
func (s *Service) notify(ctx context.Context, userIDs []string, kind, title, message string) {
	if s.notifier == nil || len(userIDs) == 0 {
		return
	}
	s.notifier.Notify(ctx, userIDs, kind, title, message)
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProjectID          string
	ClientID           string
	Title              string
	Description        string
	VoiceOver          string
	Department         string
	TaskType           string
	Priority           domain.Priority
	AssigneeIDs        []string
	WorkflowTemplateID string
	RequiresSocialPost bool
	Platforms          []string
	SocialManagerID    string
	Notes              string
	DueAt              *time.Time
}

// CreateTask creates a task. A workflow-bearing task starts in_progress and
// freezes its client-approval requirement from the template; a workflow-less
// task is parked as assigned until picked up.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	clientApproval := false
	if in.WorkflowTemplateID != "" {
		template, err := s.repo.GetWorkflowTemplate(ctx, in.WorkflowTemplateID)
		if err != nil {
			return domain.Task{}, fmt.Errorf("load workflow template %q: %w", in.WorkflowTemplateID, err)
		}
		clientApproval = template.RequiresClientApproval
	}

	task, err := domain.NewTask(domain.TaskInput{
		ID:                 s.idGen(),
		ProjectID:          in.ProjectID,
		ClientID:           in.ClientID,
		Title:              in.Title,
		Description:        in.Description,
		VoiceOver:          in.VoiceOver,
		Department:         in.Department,
		TaskType:           in.TaskType,
		Priority:           in.Priority,
		AssigneeIDs:        in.AssigneeIDs,
		WorkflowTemplateID: in.WorkflowTemplateID,
		RequiresSocialPost: in.RequiresSocialPost,
		Platforms:          in.Platforms,
		SocialManagerID:    in.SocialManagerID,
		Notes:              in.Notes,
		DueAt:              in.DueAt,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	task.ClientApprovalRequired = clientApproval

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask returns task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, taskID)
}

// ListTasks lists tasks for a project.
func (s *Service) ListTasks(ctx context.Context, projectID string, includeArchived bool) ([]domain.Task, error) {
	return s.repo.ListTasksByProject(ctx, projectID, includeArchived)
}

// ListApprovalSteps returns the approval chain for a task ordered by level.
func (s *Service) ListApprovalSteps(ctx context.Context, taskID string) ([]domain.ApprovalStep, error) {
	return s.repo.ListApprovalSteps(ctx, taskID)
}

// CreateWorkflowTemplate creates workflow template.
func (s *Service) CreateWorkflowTemplate(ctx context.Context, name string, steps []domain.WorkflowStep, requiresClientApproval bool) (domain.WorkflowTemplate, error) {
	template, err := domain.NewWorkflowTemplate(s.idGen(), name, steps, requiresClientApproval, s.clock())
	if err != nil {
		return domain.WorkflowTemplate{}, err
	}
	if err := s.repo.PutWorkflowTemplate(ctx, template); err != nil {
		return domain.WorkflowTemplate{}, err
	}
	return template, nil
}

// CreateUser creates a directory user.
func (s *Service) CreateUser(ctx context.Context, name, email, department string, roleIDs []string) (domain.User, error) {
	user, err := domain.NewUser(s.idGen(), name, email, department, roleIDs, s.clock())
	if err != nil {
		return domain.User{}, err
	}
	if err := s.repo.PutUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CreateProject creates project.
func (s *Service) CreateProject(ctx context.Context, clientID, name, description string) (domain.Project, error) {
	project, err := domain.NewProject(s.idGen(), clientID, name, description, s.clock())
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.repo.PutProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// AddProjectMember binds a user to a project under a project-role key.
func (s *Service) AddProjectMember(ctx context.Context, projectID, userID, roleInProject string) (domain.ProjectMember, error) {
	if projectID == "" || userID == "" {
		return domain.ProjectMember{}, domain.ErrInvalidID
	}
	member := domain.ProjectMember{
		ID:            s.idGen(),
		ProjectID:     projectID,
		UserID:        userID,
		RoleInProject: roleInProject,
	}
	if err := s.repo.PutProjectMember(ctx, member); err != nil {
		return domain.ProjectMember{}, err
	}
	return member, nil
}
