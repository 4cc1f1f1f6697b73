package app

import (
	"context"
	"fmt"

	"github.com/hylla/studioflow/internal/domain"
)

// ResolverData carries the directory slices the approver resolver searches.
// Slices keep their given order so resolution stays deterministic.
type ResolverData struct {
	Members []domain.ProjectMember
	Users   []domain.User
}

// ResolveApprover determines the concrete user who must act on a workflow
// step for a task. Priority order, first match wins: a specific user is
// returned unconditionally; a project-role key looks up the membership row
// for the task's project; a system role searches three widening scopes
// (project members, task department, anywhere). A miss is a hard error:
// an unreachable approval gate must never be written silently.
func ResolveApprover(step domain.WorkflowStep, task domain.Task, data ResolverData) (string, error) {
	switch step.Kind {
	case domain.StepKindSpecificUser:
		return step.UserID, nil

	case domain.StepKindProjectRole:
		for _, member := range data.Members {
			if member.ProjectID == task.ProjectID && member.RoleInProject == step.ProjectRoleKey {
				return member.UserID, nil
			}
		}
		return "", fmt.Errorf("project role %q on project %q: %w", step.ProjectRoleKey, task.ProjectID, ErrUnassignedApprover)

	case domain.StepKindSystemRole:
		memberIDs := map[string]bool{}
		for _, member := range data.Members {
			if member.ProjectID == task.ProjectID {
				memberIDs[member.UserID] = true
			}
		}
		// Scope a: role holder who is also a project member.
		for _, user := range data.Users {
			if user.HasRole(step.SystemRoleID) && memberIDs[user.ID] {
				return user.ID, nil
			}
		}
		// Scope b: role holder in the task's department.
		if task.Department != "" {
			for _, user := range data.Users {
				if user.HasRole(step.SystemRoleID) && user.Department == task.Department {
					return user.ID, nil
				}
			}
		}
		// Scope c: any role holder.
		for _, user := range data.Users {
			if user.HasRole(step.SystemRoleID) {
				return user.ID, nil
			}
		}
		return "", fmt.Errorf("system role %q: %w", step.SystemRoleID, ErrUnassignedApprover)

	default:
		return "", fmt.Errorf("step kind %q: %w", step.Kind, ErrUnassignedApprover)
	}
}

// resolverData loads the directory slices for a task's project.
func (s *Service) resolverData(ctx context.Context, task domain.Task) (ResolverData, error) {
	members, err := s.repo.ListProjectMembers(ctx, task.ProjectID)
	if err != nil {
		return ResolverData{}, fmt.Errorf("list project members: %w", err)
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return ResolverData{}, fmt.Errorf("list users: %w", err)
	}
	return ResolverData{Members: members, Users: users}, nil
}
