package domain

import (
	"slices"
	"strings"
	"time"
)

// StepKind tags the single resolution mode of a workflow step.
type StepKind string

const (
	StepKindSpecificUser StepKind = "specific_user"
	StepKindProjectRole  StepKind = "project_role"
	StepKindSystemRole   StepKind = "system_role"
)

// WorkflowStep is one template step. Exactly one of UserID, ProjectRoleKey,
// or SystemRoleID is set, selected by Kind.
type WorkflowStep struct {
	Order          int
	Name           string
	Kind           StepKind
	UserID         string
	ProjectRoleKey string
	SystemRoleID   string
}

// WorkflowTemplate is an ordered approval chain template.
type WorkflowTemplate struct {
	ID                     string
	Name                   string
	Steps                  []WorkflowStep
	RequiresClientApproval bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewWorkflowTemplate constructs a validated template. Steps must carry
// 0-based, contiguous, unique orders and exactly one resolution mode each.
func NewWorkflowTemplate(id, name string, steps []WorkflowStep, requiresClientApproval bool, now time.Time) (WorkflowTemplate, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return WorkflowTemplate{}, ErrInvalidID
	}
	if name == "" {
		return WorkflowTemplate{}, ErrInvalidName
	}
	seen := map[int]bool{}
	for i := range steps {
		steps[i].Name = strings.TrimSpace(steps[i].Name)
		steps[i].UserID = strings.TrimSpace(steps[i].UserID)
		steps[i].ProjectRoleKey = strings.TrimSpace(steps[i].ProjectRoleKey)
		steps[i].SystemRoleID = strings.TrimSpace(steps[i].SystemRoleID)
		if err := validateStepKind(steps[i]); err != nil {
			return WorkflowTemplate{}, err
		}
		if steps[i].Order < 0 || steps[i].Order >= len(steps) || seen[steps[i].Order] {
			return WorkflowTemplate{}, ErrInvalidStepOrder
		}
		seen[steps[i].Order] = true
	}
	return WorkflowTemplate{
		ID:                     id,
		Name:                   name,
		Steps:                  sortStepsByOrder(steps),
		RequiresClientApproval: requiresClientApproval,
		CreatedAt:              now.UTC(),
		UpdatedAt:              now.UTC(),
	}, nil
}

// validateStepKind enforces the exactly-one-mode rule.
func validateStepKind(step WorkflowStep) error {
	switch step.Kind {
	case StepKindSpecificUser:
		if step.UserID == "" || step.ProjectRoleKey != "" || step.SystemRoleID != "" {
			return ErrInvalidStepKind
		}
	case StepKindProjectRole:
		if step.ProjectRoleKey == "" || step.UserID != "" || step.SystemRoleID != "" {
			return ErrInvalidStepKind
		}
	case StepKindSystemRole:
		if step.SystemRoleID == "" || step.UserID != "" || step.ProjectRoleKey != "" {
			return ErrInvalidStepKind
		}
	default:
		return ErrInvalidStepKind
	}
	return nil
}

// sortStepsByOrder handles sort steps by order.
func sortStepsByOrder(steps []WorkflowStep) []WorkflowStep {
	out := slices.Clone(steps)
	slices.SortFunc(out, func(a, b WorkflowStep) int {
		return a.Order - b.Order
	})
	return out
}
