package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hylla/studioflow/internal/domain"
)

// productionTitlePrefix marks task copies synthesized from manual tasks.
const productionTitlePrefix = "[Production] "

// EditMode selects how a plan edit treats tasks already in progress.
type EditMode string

const (
	// EditModeSafe touches only tasks still in their initial state.
	EditModeSafe EditMode = "safe"
	// EditModeForce reassigns every task regardless of progress and
	// requires a justification persisted on each touched task.
	EditModeForce EditMode = "force"
)

// OverrideInput authorizes including a roster member despite an approved
// leave conflict on the production date.
type OverrideInput struct {
	UserID         string
	AuthorizedByID string
	Reason         string
}

// GeneratePlanInput holds input values for generate plan operations.
type GeneratePlanInput struct {
	Name            string
	ProjectID       string
	ProductionDate  time.Time
	CalendarItemIDs []string
	ManualTaskIDs   []string
	TeamMemberIDs   []string
	Overrides       []OverrideInput
}

// DuplicateWarning reports other non-completed plans already claiming one of
// this plan's source items. Advisory only; the same content may
// legitimately need two separate shoots.
type DuplicateWarning struct {
	ItemID  string
	Kind    domain.SourceType
	PlanIDs []string
}

// GeneratePlan fans one planning action out into its derived tasks and
// assignment rows in a single atomic batch: one task per calendar item, one
// task copy per manual task, and one assignment per roster member. Partial
// fan-out is an invalid intermediate state the batch makes impossible.
func (s *Service) GeneratePlan(ctx context.Context, in GeneratePlanInput, actorID string) (domain.ProductionPlan, []DuplicateWarning, error) {
	now := s.clock()
	plan, err := domain.NewProductionPlan(domain.PlanInput{
		ID:              s.idGen(),
		Name:            in.Name,
		ProjectID:       in.ProjectID,
		ProductionDate:  in.ProductionDate,
		CalendarItemIDs: in.CalendarItemIDs,
		ManualTaskIDs:   in.ManualTaskIDs,
		TeamMemberIDs:   in.TeamMemberIDs,
	}, now)
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	if err := s.applyLeaveOverrides(ctx, &plan, in.Overrides); err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	warnings, err := s.DetectPlanDuplicates(ctx, plan)
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	productionDate := plan.ProductionDate
	var (
		tasks         []domain.Task
		calendarItems []domain.CalendarItem
	)

	for _, itemID := range plan.CalendarItemIDs {
		item, err := s.repo.GetCalendarItem(ctx, itemID)
		if err != nil {
			return domain.ProductionPlan{}, nil, fmt.Errorf("calendar item %q: %w", itemID, err)
		}
		task, err := domain.NewTask(domain.TaskInput{
			ID:          s.idGen(),
			ProjectID:   plan.ProjectID,
			Title:       item.Title,
			Description: item.Description,
			Platforms:   item.Platforms,
			Priority:    domain.PriorityMedium,
			Status:      domain.StatusNew,
			AssigneeIDs: plan.TeamMemberIDs,
			DueAt:       &productionDate,
		}, now)
		if err != nil {
			return domain.ProductionPlan{}, nil, err
		}
		task.ProductionPlanID = plan.ID
		task.SourceType = domain.SourceCalendar
		task.SourceCalendarItemID = item.ID
		item.TaskID = task.ID
		tasks = append(tasks, task)
		calendarItems = append(calendarItems, item)
	}

	for _, taskID := range plan.ManualTaskIDs {
		source, err := s.repo.GetTask(ctx, taskID)
		if err != nil {
			return domain.ProductionPlan{}, nil, fmt.Errorf("manual task %q: %w", taskID, err)
		}
		// The source task is copied, never mutated.
		copyTask, err := domain.NewTask(domain.TaskInput{
			ID:          s.idGen(),
			ProjectID:   plan.ProjectID,
			Title:       productionTitlePrefix + source.Title,
			Description: source.Description,
			Department:  source.Department,
			TaskType:    source.TaskType,
			Priority:    source.Priority,
			Status:      domain.StatusNew,
			AssigneeIDs: plan.TeamMemberIDs,
			DueAt:       &productionDate,
		}, now)
		if err != nil {
			return domain.ProductionPlan{}, nil, err
		}
		copyTask.ProductionPlanID = plan.ID
		copyTask.SourceType = domain.SourceTask
		copyTask.SourceTaskID = source.ID
		tasks = append(tasks, copyTask)
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
	}
	plan.GeneratedTaskIDs = taskIDs
	if err := plan.SetStatus(domain.PlanStatusScheduled, now); err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	assignments := make([]domain.ProductionAssignment, 0, len(plan.TeamMemberIDs))
	for _, memberID := range plan.TeamMemberIDs {
		assignment, err := domain.NewProductionAssignment(s.idGen(), plan, memberID, taskIDs, now)
		if err != nil {
			return domain.ProductionPlan{}, nil, err
		}
		assignments = append(assignments, assignment)
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutProductionPlan(plan); err != nil {
			return err
		}
		for _, task := range tasks {
			if err := tx.PutTask(task); err != nil {
				return err
			}
		}
		for _, item := range calendarItems {
			if err := tx.PutCalendarItem(item); err != nil {
				return err
			}
		}
		for _, assignment := range assignments {
			if err := tx.PutAssignment(assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	s.notify(ctx, plan.TeamMemberIDs, "production_scheduled", "Production scheduled", fmt.Sprintf("You are on the roster for %q on %s.", plan.Name, plan.ProductionDate.Format("2006-01-02")))
	return plan, warnings, nil
}

// applyLeaveOverrides flags roster members whose approved leave covers the
// production date. Each flagged member needs an explicit audited override or
// the whole operation fails before any write.
func (s *Service) applyLeaveOverrides(ctx context.Context, plan *domain.ProductionPlan, overrides []OverrideInput) error {
	leaves, err := s.repo.ListLeaveRequestsForUsers(ctx, plan.TeamMemberIDs)
	if err != nil {
		return err
	}
	byUser := map[string]OverrideInput{}
	for _, o := range overrides {
		byUser[o.UserID] = o
	}
	for _, leave := range leaves {
		if !leave.Covers(plan.ProductionDate) {
			continue
		}
		override, ok := byUser[leave.UserID]
		if !ok {
			return fmt.Errorf("user %q is on approved leave covering %s: %w", leave.UserID, plan.ProductionDate.Format("2006-01-02"), ErrLeaveConflict)
		}
		if err := plan.AddOverride(override.UserID, override.AuthorizedByID, override.Reason, s.clock()); err != nil {
			return err
		}
	}
	return nil
}

// DetectPlanDuplicates scans every other non-completed plan for overlap on
// the same calendar items or manual tasks. Archived plans are skipped; the
// result is advisory and independent of edit mode.
func (s *Service) DetectPlanDuplicates(ctx context.Context, plan domain.ProductionPlan) ([]DuplicateWarning, error) {
	plans, err := s.repo.ListProductionPlans(ctx)
	if err != nil {
		return nil, err
	}
	var warnings []DuplicateWarning
	appendWarning := func(itemID string, kind domain.SourceType, planID string) {
		for i := range warnings {
			if warnings[i].ItemID == itemID && warnings[i].Kind == kind {
				if !slices.Contains(warnings[i].PlanIDs, planID) {
					warnings[i].PlanIDs = append(warnings[i].PlanIDs, planID)
				}
				return
			}
		}
		warnings = append(warnings, DuplicateWarning{ItemID: itemID, Kind: kind, PlanIDs: []string{planID}})
	}
	for _, other := range plans {
		if other.ID == plan.ID || other.Status == domain.PlanStatusCompleted || other.IsArchived() {
			continue
		}
		for _, itemID := range plan.CalendarItemIDs {
			if slices.Contains(other.CalendarItemIDs, itemID) {
				appendWarning(itemID, domain.SourceCalendar, other.ID)
			}
		}
		for _, taskID := range plan.ManualTaskIDs {
			if slices.Contains(other.ManualTaskIDs, taskID) {
				appendWarning(taskID, domain.SourceTask, other.ID)
			}
		}
	}
	return warnings, nil
}

// EditPlanInput holds input values for edit plan operations.
type EditPlanInput struct {
	PlanID         string
	Mode           EditMode
	Justification  string
	TeamMemberIDs  []string
	ProductionDate *time.Time
	Overrides      []OverrideInput
}

// EditPlan reassigns an existing plan's roster and date. Safe mode touches
// only tasks still in their initial state; force mode reassigns everything
// and persists the mandatory justification on each touched task. Assignment
// rows are fully replaced, never patched, so they cannot drift.
func (s *Service) EditPlan(ctx context.Context, in EditPlanInput, actorID string) (domain.ProductionPlan, []DuplicateWarning, error) {
	plan, err := s.repo.GetProductionPlan(ctx, in.PlanID)
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}
	if plan.IsArchived() {
		return domain.ProductionPlan{}, nil, fmt.Errorf("plan %q is archived: %w", in.PlanID, ErrInvalidTransition)
	}
	if plan.Status == domain.PlanStatusCompleted {
		return domain.ProductionPlan{}, nil, fmt.Errorf("plan %q is completed: %w", in.PlanID, ErrInvalidTransition)
	}
	if in.Mode != EditModeSafe && in.Mode != EditModeForce {
		return domain.ProductionPlan{}, nil, fmt.Errorf("edit mode %q: %w", in.Mode, ErrInvalidTransition)
	}
	if in.Mode == EditModeForce && in.Justification == "" {
		return domain.ProductionPlan{}, nil, ErrMissingJustification
	}

	now := s.clock()
	if len(in.TeamMemberIDs) > 0 {
		if err := plan.ReplaceRoster(in.TeamMemberIDs, now); err != nil {
			return domain.ProductionPlan{}, nil, err
		}
	}
	if in.ProductionDate != nil {
		plan.ProductionDate = in.ProductionDate.UTC().Truncate(24 * time.Hour)
	}
	plan.UpdatedAt = now.UTC()
	if err := s.applyLeaveOverrides(ctx, &plan, in.Overrides); err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	warnings, err := s.DetectPlanDuplicates(ctx, plan)
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	tasks, err := s.repo.ListTasksByPlan(ctx, plan.ID)
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}
	productionDate := plan.ProductionDate
	var touched []domain.Task
	for _, task := range tasks {
		if in.Mode == EditModeSafe && task.Status != domain.StatusNew {
			continue
		}
		if err := task.ReplaceAssignees(plan.TeamMemberIDs, now); err != nil {
			return domain.ProductionPlan{}, nil, err
		}
		task.DueAt = &productionDate
		if in.Mode == EditModeForce {
			task.ReassignNote = in.Justification
		}
		touched = append(touched, task)
	}

	taskIDs := make([]string, 0, len(tasks))
	for _, task := range tasks {
		taskIDs = append(taskIDs, task.ID)
	}
	assignments := make([]domain.ProductionAssignment, 0, len(plan.TeamMemberIDs))
	for _, memberID := range plan.TeamMemberIDs {
		assignment, err := domain.NewProductionAssignment(s.idGen(), plan, memberID, taskIDs, now)
		if err != nil {
			return domain.ProductionPlan{}, nil, err
		}
		assignments = append(assignments, assignment)
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutProductionPlan(plan); err != nil {
			return err
		}
		for _, task := range touched {
			if err := tx.PutTask(task); err != nil {
				return err
			}
		}
		if err := tx.DeleteAssignmentsByPlan(plan.ID); err != nil {
			return err
		}
		for _, assignment := range assignments {
			if err := tx.PutAssignment(assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ProductionPlan{}, nil, err
	}

	s.notify(ctx, plan.TeamMemberIDs, "production_updated", "Production updated", fmt.Sprintf("Plan %q was updated.", plan.Name))
	return plan, warnings, nil
}

// GetProductionPlan returns one production plan by id.
func (s *Service) GetProductionPlan(ctx context.Context, planID string) (domain.ProductionPlan, error) {
	return s.repo.GetProductionPlan(ctx, planID)
}

// ArchivePlan archives the plan, every task it generated, and every
// assignment row in one atomic operation, stamping the 30-day restore
// window. Generated tasks are re-fetched from the store immediately before
// archiving rather than read from a cached id set.
func (s *Service) ArchivePlan(ctx context.Context, planID, actorID string) (domain.ProductionPlan, error) {
	plan, err := s.repo.GetProductionPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}
	if plan.IsArchived() {
		return domain.ProductionPlan{}, fmt.Errorf("plan %q: %w", planID, ErrAlreadyArchived)
	}

	tasks, err := s.repo.ListTasksByPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}
	assignments, err := s.repo.ListAssignmentsByPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}

	now := s.clock()
	if err := plan.Archive(now); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("plan %q: %w", planID, ErrInvalidTransition)
	}

	writes := &archiveWrites{}
	for i := range tasks {
		if tasks[i].IsArchived() {
			continue
		}
		if err := s.collectTaskArchiveWrites(ctx, tasks[i], writes); err != nil {
			return domain.ProductionPlan{}, err
		}
		tasks[i].Archive(now)
	}
	ts := now.UTC()
	for i := range assignments {
		assignments[i].ArchivedAt = &ts
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutProductionPlan(plan); err != nil {
			return err
		}
		if err := writes.apply(tx); err != nil {
			return err
		}
		for _, task := range tasks {
			if err := tx.PutTask(task); err != nil {
				return err
			}
		}
		for _, assignment := range assignments {
			if err := tx.PutAssignment(assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ProductionPlan{}, err
	}

	s.notify(ctx, plan.TeamMemberIDs, "production_archived", "Production archived", fmt.Sprintf("Plan %q was archived.", plan.Name))
	return plan, nil
}

// RestorePlan reverses a plan archive within the retention window, clearing
// archive stamps on the plan, its tasks, and its assignments, and returning
// the plan to draft. Past the window it fails with a distinct expiry error
// and changes nothing.
func (s *Service) RestorePlan(ctx context.Context, planID, actorID string) (domain.ProductionPlan, error) {
	plan, err := s.repo.GetProductionPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}
	if !plan.IsArchived() {
		return domain.ProductionPlan{}, fmt.Errorf("plan %q: %w", planID, ErrNotArchived)
	}
	now := s.clock()
	if plan.CanRestoreUntil != nil && now.After(*plan.CanRestoreUntil) {
		return domain.ProductionPlan{}, fmt.Errorf("plan %q restorable until %s: %w", planID, plan.CanRestoreUntil.Format(time.RFC3339), ErrRestoreWindowExpired)
	}

	tasks, err := s.repo.ListTasksByPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}
	assignments, err := s.repo.ListAssignmentsByPlan(ctx, planID)
	if err != nil {
		return domain.ProductionPlan{}, err
	}

	if err := plan.Restore(now); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("plan %q: %w", planID, ErrInvalidTransition)
	}
	for i := range tasks {
		tasks[i].Restore(now)
	}
	for i := range assignments {
		assignments[i].ArchivedAt = nil
	}

	err = s.repo.Batch(ctx, func(tx BatchTx) error {
		if err := tx.PutProductionPlan(plan); err != nil {
			return err
		}
		for _, task := range tasks {
			if err := tx.PutTask(task); err != nil {
				return err
			}
		}
		for _, assignment := range assignments {
			if err := tx.PutAssignment(assignment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.ProductionPlan{}, err
	}

	s.notify(ctx, plan.TeamMemberIDs, "production_restored", "Production restored", fmt.Sprintf("Plan %q was restored.", plan.Name))
	return plan, nil
}
