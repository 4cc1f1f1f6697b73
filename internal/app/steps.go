package app

import (
	"context"
	"fmt"

	"github.com/hylla/studioflow/internal/domain"
)

// generateApprovalSteps instantiates the ordered approval chain for a task
// from its workflow template. Only ever invoked when the task has zero
// existing steps; the first step opens pending, the rest wait. The caller
// commits the returned steps in the same batch as the task's move to
// awaiting_review, since a chain with a status but no gates is a task
// stuck forever.
func (s *Service) generateApprovalSteps(ctx context.Context, task domain.Task, template domain.WorkflowTemplate) ([]domain.ApprovalStep, error) {
	data, err := s.resolverData(ctx, task)
	if err != nil {
		return nil, err
	}
	now := s.clock()

	steps := make([]domain.ApprovalStep, 0, len(template.Steps))
	for _, stepTemplate := range template.Steps {
		approverID, err := ResolveApprover(stepTemplate, task, data)
		if err != nil {
			return nil, fmt.Errorf("resolve approver for step %d: %w", stepTemplate.Order, err)
		}
		status := domain.StepWaiting
		if stepTemplate.Order == 0 {
			status = domain.StepPending
		}
		step, err := domain.NewApprovalStep(s.idGen(), task.ID, stepTemplate.Order, stepTemplate.Name, approverID, status, now)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}
