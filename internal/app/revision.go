package app

import (
	"context"
	"fmt"

	"github.com/hylla/studioflow/internal/domain"
)

// submitRevision runs the revision cycle manager: the step that asked for
// the revision re-enters the queue exactly where it left off, the history
// entry for the cycle is annotated resolved, and the task returns to review
// visible to both the requester and the revisor. The context's active flag
// stays true until the next approval resolves it, so reviewers keep seeing
// what was asked for while the resubmission is pending.
func (s *Service) submitRevision(ctx context.Context, task domain.Task, actorID string) (domain.Task, error) {
	revision := task.Revision
	if revision == nil || !revision.Active {
		return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrNoActiveRevision)
	}

	now := s.clock()
	// Stale terminal stamps from unrelated paths would hide the task from
	// active lists; clear them before anything else re-checks them.
	task.ClearTerminalStamps(now)

	steps, err := s.repo.ListApprovalSteps(ctx, task.ID)
	if err != nil {
		return domain.Task{}, err
	}

	var (
		reopened       *domain.ApprovalStep
		marker         *domain.ApprovalStep
		clientApproval *domain.ClientApproval
	)

	if revision.RequestedByStepID != "" {
		for i := range steps {
			if steps[i].ID == revision.RequestedByStepID {
				steps[i].Reopen()
				reopened = &steps[i]
			}
		}
		if reopened == nil {
			return domain.Task{}, fmt.Errorf("revision step %q on task %q: %w", revision.RequestedByStepID, task.ID, ErrNotFound)
		}
		// A submitter who also owns a distinct step gets a soft marker; it
		// does not touch the active-gate invariant.
		for i := range steps {
			if steps[i].ID != reopened.ID && steps[i].ApproverID == actorID {
				steps[i].Status = domain.StepRevisionSubmitted
				marker = &steps[i]
			}
		}
		task.CurrentApprovalLevel = reopened.Level
		if err := task.SetStatus(domain.StatusAwaitingReview, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
	} else {
		// The revision came from a client rejection; there is no chain step
		// to reopen, so the client approval record returns to pending.
		record, recErr := s.repo.GetClientApprovalByTask(ctx, task.ID)
		if recErr != nil {
			return domain.Task{}, fmt.Errorf("load client approval for task %q: %w", task.ID, recErr)
		}
		record.Reopen()
		clientApproval = &record
		if err := task.SetStatus(domain.StatusClientReview, now); err != nil {
			return domain.Task{}, fmt.Errorf("task %q: %w", task.ID, ErrInvalidTransition)
		}
	}

	task.MarkRevisionResolved(now)
	task.UnionAssignees([]string{revision.RequestedByUserID, actorID}, now)

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if reopened != nil {
			if err := tx.PutApprovalStep(*reopened); err != nil {
				return err
			}
		}
		if marker != nil {
			if err := tx.PutApprovalStep(*marker); err != nil {
				return err
			}
		}
		if clientApproval != nil {
			if err := tx.PutClientApproval(*clientApproval); err != nil {
				return err
			}
		}
		return tx.PutTask(task)
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.notify(ctx, []string{revision.RequestedByUserID}, "revision_submitted", "Revision submitted", fmt.Sprintf("Task %q was resubmitted for review.", task.Title))
	return task, nil
}
