package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hylla/studioflow/internal/domain"
)

// activeGate returns the index of the single pending step. The ordering
// authority is this re-check on every transition, not a global lock: each
// caller re-validates "is there currently exactly one pending step, and am
// I it?" before acting.
func activeGate(steps []domain.ApprovalStep) (int, error) {
	found := -1
	for i := range steps {
		if steps[i].Status != domain.StepPending {
			continue
		}
		if found == -1 || steps[i].Level < steps[found].Level {
			found = i
		}
	}
	if found == -1 {
		return 0, ErrNoActiveGate
	}
	return found, nil
}

// stepAtLevel returns the index of the step at the given level, or -1.
func stepAtLevel(steps []domain.ApprovalStep, level int) int {
	for i := range steps {
		if steps[i].Level == level {
			return i
		}
	}
	return -1
}

// StartTask picks up a task into active work. The actor must be a current
// assignee; the task must sit in new or assigned. Production fan-out
// creates its derived tasks in new, so this is the entry every generated
// task takes into the lifecycle.
func (s *Service) StartTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsArchived() {
		return domain.Task{}, fmt.Errorf("task %q is archived: %w", taskID, ErrInvalidTransition)
	}
	if !task.HasAssignee(actorID) {
		return domain.Task{}, fmt.Errorf("user %q is not an assignee of task %q: %w", actorID, taskID, ErrNotAuthorized)
	}
	if task.Status != domain.StatusNew && task.Status != domain.StatusAssigned {
		return domain.Task{}, fmt.Errorf("cannot start from status %q: %w", task.Status, ErrInvalidTransition)
	}
	if err := task.SetStatus(domain.StatusInProgress, s.clock()); err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
	}
	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// SubmitTask advances a task out of the working states. The actor must be a
// current assignee. From revisions_required it delegates to the revision
// cycle manager; from assigned/in_progress it either instantiates the
// approval chain or, with no workflow, runs straight to completion
// semantics. Any other starting state is a reported no-op, not a panic.
func (s *Service) SubmitTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if !task.HasAssignee(actorID) {
		return domain.Task{}, fmt.Errorf("user %q is not an assignee of task %q: %w", actorID, taskID, ErrNotAuthorized)
	}

	switch task.Status {
	case domain.StatusRevisionsRequired:
		// The revision manager clears stale archive stamps itself, so the
		// archived guard is deliberately not applied on this path.
		if task.Revision == nil || !task.Revision.Active {
			return domain.Task{}, fmt.Errorf("task %q: %w", taskID, ErrNoActiveRevision)
		}
		return s.submitRevision(ctx, task, actorID)
	case domain.StatusAssigned, domain.StatusInProgress:
		if task.IsArchived() {
			return domain.Task{}, fmt.Errorf("task %q is archived: %w", taskID, ErrInvalidTransition)
		}
	default:
		return domain.Task{}, fmt.Errorf("cannot submit from status %q: %w", task.Status, ErrNotAuthorized)
	}

	now := s.clock()

	if !task.HasWorkflow() {
		// Direct completion: no approval chain applies.
		post, err := s.socialHandover(&task)
		if err != nil {
			return domain.Task{}, err
		}
		task.Complete(now)
		err = s.repo.Batch(ctx, func(tx BatchTx) error {
			if post != nil {
				if err := tx.PutSocialPost(*post); err != nil {
					return err
				}
			}
			return tx.PutTask(task)
		})
		if err != nil {
			return domain.Task{}, err
		}
		s.notify(ctx, task.AssigneeIDs, "task_completed", "Task completed", fmt.Sprintf("Task %q was completed.", task.Title))
		return task, nil
	}

	template, err := s.repo.GetWorkflowTemplate(ctx, task.WorkflowTemplateID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("load workflow template %q: %w", task.WorkflowTemplateID, err)
	}

	existing, err := s.repo.ListApprovalSteps(ctx, task.ID)
	if err != nil {
		return domain.Task{}, err
	}
	var newSteps []domain.ApprovalStep
	if len(existing) == 0 {
		newSteps, err = s.generateApprovalSteps(ctx, task, template)
		if err != nil {
			return domain.Task{}, err
		}
	}

	if err := task.SetStatus(domain.StatusAwaitingReview, now); err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
	}
	task.CurrentApprovalLevel = 0

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		for _, step := range newSteps {
			if err := tx.PutApprovalStep(step); err != nil {
				return err
			}
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	chain := existing
	if len(newSteps) > 0 {
		chain = newSteps
	}
	if idx, gateErr := activeGate(chain); gateErr == nil {
		s.notify(ctx, []string{chain[idx].ApproverID}, "approval_requested", "Review requested", fmt.Sprintf("Task %q is awaiting your review.", task.Title))
	}
	return task, nil
}

// ApproveStep approves the active gate. The actor must be the gate's
// resolved approver. Approval resolves any outstanding revision context,
// then advances the chain: next step opens, or the task moves to client
// review, or final internal approval runs the social handover.
func (s *Service) ApproveStep(ctx context.Context, taskID, actorID, comment string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsArchived() {
		return domain.Task{}, fmt.Errorf("task %q is archived: %w", taskID, ErrInvalidTransition)
	}
	if task.Status != domain.StatusAwaitingReview {
		return domain.Task{}, fmt.Errorf("cannot approve from status %q: %w", task.Status, ErrInvalidTransition)
	}
	steps, err := s.repo.ListApprovalSteps(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	gate, err := activeGate(steps)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, err)
	}
	if steps[gate].ApproverID != actorID {
		return domain.Task{}, fmt.Errorf("user %q is not the active approver of task %q: %w", actorID, taskID, ErrNotAuthorized)
	}

	now := s.clock()
	steps[gate].Approve(now)
	steps[gate].Comment = comment
	task.DeactivateRevision(now)

	var (
		nextStep       *domain.ApprovalStep
		clientApproval *domain.ClientApproval
		post           *domain.SocialPost
	)

	next := stepAtLevel(steps, steps[gate].Level+1)
	switch {
	case next >= 0:
		steps[next].Status = domain.StepPending
		task.CurrentApprovalLevel = steps[next].Level
		task.UpdatedAt = now.UTC()
		nextStep = &steps[next]

	case task.ClientApprovalRequired:
		if err := task.SetStatus(domain.StatusClientReview, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
		if _, err := s.repo.GetClientApprovalByTask(ctx, task.ID); err != nil {
			if !errors.Is(err, ErrNotFound) {
				return domain.Task{}, err
			}
			record, newErr := domain.NewClientApproval(s.idGen(), task.ID, task.ClientID, now)
			if newErr != nil {
				return domain.Task{}, newErr
			}
			clientApproval = &record
		}

	default:
		// Final internal approval.
		post, err = s.socialHandover(&task)
		if err != nil {
			return domain.Task{}, err
		}
		if err := task.SetStatus(domain.StatusApproved, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
		if !task.RequiresSocialPost {
			task.Complete(now)
		}
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutApprovalStep(steps[gate]); err != nil {
			return err
		}
		if nextStep != nil {
			if err := tx.PutApprovalStep(*nextStep); err != nil {
				return err
			}
		}
		if clientApproval != nil {
			if err := tx.PutClientApproval(*clientApproval); err != nil {
				return err
			}
		}
		if post != nil {
			if err := tx.PutSocialPost(*post); err != nil {
				return err
			}
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	switch {
	case nextStep != nil:
		s.notify(ctx, []string{nextStep.ApproverID}, "approval_requested", "Review requested", fmt.Sprintf("Task %q is awaiting your review.", task.Title))
	case task.Status == domain.StatusClientReview:
		s.notify(ctx, task.AssigneeIDs, "client_review", "Client review", fmt.Sprintf("Task %q moved to client review.", task.Title))
	default:
		s.notify(ctx, task.AssigneeIDs, "task_approved", "Task approved", fmt.Sprintf("Task %q passed internal approval.", task.Title))
	}
	return task, nil
}

// RequestRevision sends the task back for rework. The actor must be the
// active gate's approver; the chosen revisor must come from the union of
// current assignees and prior approvers in the chain, and displaces the
// assignee pool for this cycle.
func (s *Service) RequestRevision(ctx context.Context, taskID, actorID, message, revisorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.IsArchived() {
		return domain.Task{}, fmt.Errorf("task %q is archived: %w", taskID, ErrInvalidTransition)
	}
	if task.Status != domain.StatusAwaitingReview {
		return domain.Task{}, fmt.Errorf("cannot request revision from status %q: %w", task.Status, ErrInvalidTransition)
	}
	steps, err := s.repo.ListApprovalSteps(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	gate, err := activeGate(steps)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, err)
	}
	if steps[gate].ApproverID != actorID {
		return domain.Task{}, fmt.Errorf("user %q is not the active approver of task %q: %w", actorID, taskID, ErrNotAuthorized)
	}
	if !revisorAllowed(task, steps, steps[gate].Level, revisorID) {
		return domain.Task{}, fmt.Errorf("user %q: %w", revisorID, ErrInvalidRevisionee)
	}

	now := s.clock()
	steps[gate].RequestRevision(message, now)
	if err := task.BeginRevision(actorID, steps[gate].ID, revisorID, message, now); err != nil {
		return domain.Task{}, err
	}
	if err := task.SetStatus(domain.StatusRevisionsRequired, now); err != nil {
		return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
	}
	if err := task.ReplaceAssignees([]string{revisorID}, now); err != nil {
		return domain.Task{}, err
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutApprovalStep(steps[gate]); err != nil {
			return err
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.notify(ctx, []string{revisorID}, "revision_requested", "Revision requested", message)
	return task, nil
}

// revisorAllowed reports whether userID may be chosen as the revisor: a
// current assignee, or the approver of any step below the active gate.
func revisorAllowed(task domain.Task, steps []domain.ApprovalStep, gateLevel int, userID string) bool {
	if userID == "" {
		return false
	}
	if task.HasAssignee(userID) {
		return true
	}
	for _, step := range steps {
		if step.Level < gateLevel && step.ApproverID == userID {
			return true
		}
	}
	return false
}

// ResolveClientApproval records the client verdict on a task in client
// review. The client is not a directory user, so any member of the task's
// project may record the verdict; the acting member lands on the record for
// audit. Approval advances to client_approved (and straight to completed
// when no social handover applies); rejection opens a revision cycle
// assigned to the chosen revisor.
func (s *Service) ResolveClientApproval(ctx context.Context, taskID, actorID string, approved bool, comment, revisorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status != domain.StatusClientReview {
		return domain.Task{}, fmt.Errorf("cannot resolve client approval from status %q: %w", task.Status, ErrInvalidTransition)
	}
	members, err := s.repo.ListProjectMembers(ctx, task.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	isMember := false
	for _, m := range members {
		if m.UserID == actorID {
			isMember = true
			break
		}
	}
	if !isMember {
		return domain.Task{}, fmt.Errorf("user %q is not a member of project %q: %w", actorID, task.ProjectID, ErrNotAuthorized)
	}
	record, err := s.repo.GetClientApprovalByTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("load client approval for task %q: %w", taskID, err)
	}

	now := s.clock()
	var post *domain.SocialPost

	if approved {
		if err := record.Resolve(domain.ClientApprovalApproved, actorID, comment, now); err != nil {
			return domain.Task{}, fmt.Errorf("client approval for task %q: %w", taskID, ErrInvalidTransition)
		}
		task.DeactivateRevision(now)
		if err := task.SetStatus(domain.StatusClientApproved, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
		post, err = s.socialHandover(&task)
		if err != nil {
			return domain.Task{}, err
		}
		if !task.RequiresSocialPost {
			task.Complete(now)
		}
	} else {
		if revisorID == "" && len(task.AssigneeIDs) > 0 {
			revisorID = task.AssigneeIDs[0]
		}
		steps, stepsErr := s.repo.ListApprovalSteps(ctx, taskID)
		if stepsErr != nil {
			return domain.Task{}, stepsErr
		}
		if !revisorAllowed(task, steps, len(steps), revisorID) {
			return domain.Task{}, fmt.Errorf("user %q: %w", revisorID, ErrInvalidRevisionee)
		}
		if err := record.Resolve(domain.ClientApprovalRejected, actorID, comment, now); err != nil {
			return domain.Task{}, fmt.Errorf("client approval for task %q: %w", taskID, ErrInvalidTransition)
		}
		// The client holds no chain step; the revision context records an
		// empty step reference and re-enters at client review on resubmit.
		if err := task.BeginRevision(actorID, "", revisorID, comment, now); err != nil {
			return domain.Task{}, err
		}
		if err := task.SetStatus(domain.StatusRevisionsRequired, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
		if err := task.ReplaceAssignees([]string{revisorID}, now); err != nil {
			return domain.Task{}, err
		}
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutClientApproval(record); err != nil {
			return err
		}
		if post != nil {
			if err := tx.PutSocialPost(*post); err != nil {
				return err
			}
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	if approved {
		s.notify(ctx, task.AssigneeIDs, "client_approved", "Client approved", fmt.Sprintf("Task %q was approved by the client.", task.Title))
	} else {
		s.notify(ctx, task.AssigneeIDs, "client_rejected", "Client requested changes", comment)
	}
	return task, nil
}

// CompleteTask closes out an approved task. The actor must be a current
// assignee or the task's social manager.
func (s *Service) CompleteTask(ctx context.Context, taskID, actorID string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.Status != domain.StatusApproved && task.Status != domain.StatusClientApproved {
		return domain.Task{}, fmt.Errorf("cannot complete from status %q: %w", task.Status, ErrInvalidTransition)
	}
	if !task.HasAssignee(actorID) && actorID != task.SocialManagerID {
		return domain.Task{}, fmt.Errorf("user %q may not complete task %q: %w", actorID, taskID, ErrNotAuthorized)
	}

	now := s.clock()
	post, err := s.socialHandover(&task)
	if err != nil {
		return domain.Task{}, err
	}
	task.Complete(now)

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if post != nil {
			if err := tx.PutSocialPost(*post); err != nil {
				return err
			}
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.notify(ctx, task.AssigneeIDs, "task_completed", "Task completed", fmt.Sprintf("Task %q was completed.", task.Title))
	return task, nil
}
