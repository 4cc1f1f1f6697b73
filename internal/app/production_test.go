package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hylla/studioflow/internal/domain"
)

// productionFixture seeds a project with three calendar items, two existing
// manual tasks, and a four-member crew.
type productionFixture struct {
	env         *testEnv
	roster      []string
	calendarIDs []string
	manualIDs   []string
	date        time.Time
}

func seedProductionFixture(t *testing.T) *productionFixture {
	t.Helper()
	env := newTestEnv()
	ctx := context.Background()

	if err := env.repo.PutProject(ctx, domain.Project{ID: projectID, ClientID: clientID, Name: "Spring Campaign"}); err != nil {
		t.Fatalf("PutProject() error = %v", err)
	}
	roster := []string{"u-m1", "u-m2", "u-m3", "u-m4"}
	for _, id := range roster {
		if err := env.repo.PutUser(ctx, domain.User{ID: id, Name: id}); err != nil {
			t.Fatalf("PutUser() error = %v", err)
		}
	}

	date := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	calendarIDs := []string{"ci-1", "ci-2", "ci-3"}
	for i, id := range calendarIDs {
		item := domain.CalendarItem{
			ID:        id,
			ProjectID: projectID,
			Title:     "Calendar shoot " + string(rune('A'+i)),
			Platforms: []string{"instagram"},
			Date:      date,
		}
		if err := env.repo.PutCalendarItem(ctx, item); err != nil {
			t.Fatalf("PutCalendarItem() error = %v", err)
		}
	}

	manualIDs := make([]string, 0, 2)
	for _, title := range []string{"B-roll edit", "Voiceover recording"} {
		task, err := env.svc.CreateTask(ctx, CreateTaskInput{
			ProjectID:   projectID,
			Title:       title,
			AssigneeIDs: []string{"u-m1"},
		})
		if err != nil {
			t.Fatalf("CreateTask(%s) error = %v", title, err)
		}
		manualIDs = append(manualIDs, task.ID)
	}

	return &productionFixture{env: env, roster: roster, calendarIDs: calendarIDs, manualIDs: manualIDs, date: date}
}

func (f *productionFixture) generate(t *testing.T, overrides []OverrideInput) (domain.ProductionPlan, []DuplicateWarning) {
	t.Helper()
	plan, warnings, err := f.env.svc.GeneratePlan(context.Background(), GeneratePlanInput{
		Name:            "March shoot",
		ProjectID:       projectID,
		ProductionDate:  f.date,
		CalendarItemIDs: f.calendarIDs,
		ManualTaskIDs:   f.manualIDs,
		TeamMemberIDs:   f.roster,
		Overrides:       overrides,
	}, "u-producer")
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	return plan, warnings
}

func TestGeneratePlanFansOutTasksAndAssignments(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	plan, warnings := fix.generate(t, nil)

	if plan.Status != domain.PlanStatusScheduled {
		t.Fatalf("unexpected plan status %q", plan.Status)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if len(plan.GeneratedTaskIDs) != 5 {
		t.Fatalf("expected 5 generated tasks, got %d", len(plan.GeneratedTaskIDs))
	}

	tasks, err := fix.env.repo.ListTasksByPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("ListTasksByPlan() error = %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("expected 5 tasks in store, got %d", len(tasks))
	}
	calendarCount, manualCount := 0, 0
	for _, task := range tasks {
		if task.Status != domain.StatusNew {
			t.Fatalf("generated task %q status %q, want new", task.ID, task.Status)
		}
		if len(task.AssigneeIDs) != len(fix.roster) {
			t.Fatalf("generated task %q assignees %v", task.ID, task.AssigneeIDs)
		}
		if task.DueAt == nil || !task.DueAt.Equal(fix.date) {
			t.Fatalf("generated task %q due %v, want %v", task.ID, task.DueAt, fix.date)
		}
		switch task.SourceType {
		case domain.SourceCalendar:
			calendarCount++
			item, err := fix.env.repo.GetCalendarItem(ctx, task.SourceCalendarItemID)
			if err != nil {
				t.Fatalf("GetCalendarItem() error = %v", err)
			}
			if item.TaskID != task.ID {
				t.Fatalf("calendar item %q not back-linked, TaskID %q", item.ID, item.TaskID)
			}
		case domain.SourceTask:
			manualCount++
			if !strings.HasPrefix(task.Title, "[Production] ") {
				t.Fatalf("manual copy title %q missing prefix", task.Title)
			}
			source, err := fix.env.repo.GetTask(ctx, task.SourceTaskID)
			if err != nil {
				t.Fatalf("GetTask(source) error = %v", err)
			}
			if source.ProductionPlanID != "" || source.Status != domain.StatusAssigned {
				t.Fatalf("source task was mutated: %#v", source)
			}
		default:
			t.Fatalf("generated task %q has source type %q", task.ID, task.SourceType)
		}
	}
	if calendarCount != 3 || manualCount != 2 {
		t.Fatalf("fan-out split %d calendar / %d manual", calendarCount, manualCount)
	}

	assignments, err := fix.env.repo.ListAssignmentsByPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("ListAssignmentsByPlan() error = %v", err)
	}
	if len(assignments) != 4 {
		t.Fatalf("expected 4 assignments, got %d", len(assignments))
	}
	for _, a := range assignments {
		if len(a.TaskIDs) != 5 || !a.ProductionDate.Equal(fix.date) {
			t.Fatalf("unexpected assignment %#v", a)
		}
	}
	if !fix.env.hasNotification("production_scheduled") {
		t.Fatal("expected production_scheduled notification")
	}
}

func TestGeneratePlanLeaveConflict(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	leave := domain.LeaveRequest{
		ID:        "leave-1",
		UserID:    "u-m2",
		StartDate: fix.date.AddDate(0, 0, -1),
		EndDate:   fix.date.AddDate(0, 0, 2),
		Status:    domain.LeaveApproved,
	}
	if err := fix.env.repo.PutLeaveRequest(ctx, leave); err != nil {
		t.Fatalf("PutLeaveRequest() error = %v", err)
	}

	_, _, err := fix.env.svc.GeneratePlan(ctx, GeneratePlanInput{
		Name:            "Conflicted shoot",
		ProjectID:       projectID,
		ProductionDate:  fix.date,
		CalendarItemIDs: fix.calendarIDs,
		TeamMemberIDs:   fix.roster,
	}, "u-producer")
	if !errors.Is(err, ErrLeaveConflict) {
		t.Fatalf("GeneratePlan() error = %v, want ErrLeaveConflict", err)
	}
	if len(fix.env.repo.plans) != 0 {
		t.Fatal("conflicted generation must write nothing")
	}

	plan, _ := fix.generate(t, []OverrideInput{{UserID: "u-m2", AuthorizedByID: "u-ops-lead", Reason: "client-critical shoot"}})
	override, ok := plan.ConflictOverrides["u-m2"]
	if !ok {
		t.Fatalf("override not recorded: %#v", plan.ConflictOverrides)
	}
	if override.AuthorizedByID != "u-ops-lead" || override.Reason == "" {
		t.Fatalf("override missing audit fields: %#v", override)
	}

	// Pending leave never flags.
	leave.ID = "leave-2"
	leave.UserID = "u-m3"
	leave.Status = domain.LeavePending
	if err := fix.env.repo.PutLeaveRequest(ctx, leave); err != nil {
		t.Fatalf("PutLeaveRequest() error = %v", err)
	}
	if _, _, err := fix.env.svc.GeneratePlan(ctx, GeneratePlanInput{
		Name:           "Second shoot",
		ProjectID:      projectID,
		ProductionDate: fix.date,
		TeamMemberIDs:  []string{"u-m3"},
	}, "u-producer"); err != nil {
		t.Fatalf("GeneratePlan(pending leave) error = %v", err)
	}
}

func TestDetectPlanDuplicates(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	first, _ := fix.generate(t, nil)

	_, warnings, err := fix.env.svc.GeneratePlan(ctx, GeneratePlanInput{
		Name:            "Reshoot",
		ProjectID:       projectID,
		ProductionDate:  fix.date.AddDate(0, 0, 7),
		CalendarItemIDs: []string{"ci-1"},
		ManualTaskIDs:   []string{fix.manualIDs[0]},
		TeamMemberIDs:   []string{"u-m1"},
	}, "u-producer")
	if err != nil {
		t.Fatalf("GeneratePlan(overlap) error = %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	for _, w := range warnings {
		if len(w.PlanIDs) != 1 || w.PlanIDs[0] != first.ID {
			t.Fatalf("warning points at %v, want %q", w.PlanIDs, first.ID)
		}
	}
	if len(fix.env.repo.plans) != 2 {
		t.Fatalf("warnings must not block generation, %d plans stored", len(fix.env.repo.plans))
	}

	// Completed plans stop counting as duplicates.
	stored := fix.env.repo.plans[first.ID]
	stored.Status = domain.PlanStatusCompleted
	fix.env.repo.plans[first.ID] = stored
	_, warnings, err = fix.env.svc.GeneratePlan(ctx, GeneratePlanInput{
		Name:            "Third shoot",
		ProjectID:       projectID,
		ProductionDate:  fix.date.AddDate(0, 0, 14),
		CalendarItemIDs: []string{"ci-2"},
		TeamMemberIDs:   []string{"u-m1"},
	}, "u-producer")
	if err != nil {
		t.Fatalf("GeneratePlan(third) error = %v", err)
	}
	for _, w := range warnings {
		for _, id := range w.PlanIDs {
			if id == first.ID {
				t.Fatal("completed plan still reported as duplicate")
			}
		}
	}
}

func TestEditPlanSafeAndForce(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	plan, _ := fix.generate(t, nil)

	// One crew member already started a generated task.
	started := ""
	for _, id := range plan.GeneratedTaskIDs {
		task := fix.env.repo.tasks[id]
		if task.SourceType == domain.SourceCalendar {
			task.Status = domain.StatusInProgress
			fix.env.repo.tasks[id] = task
			started = id
			break
		}
	}

	newRoster := []string{"u-m1", "u-m5"}
	if err := fix.env.repo.PutUser(ctx, domain.User{ID: "u-m5", Name: "u-m5"}); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}

	plan, _, err := fix.env.svc.EditPlan(ctx, EditPlanInput{
		PlanID:        plan.ID,
		Mode:          EditModeSafe,
		TeamMemberIDs: newRoster,
	}, "u-producer")
	if err != nil {
		t.Fatalf("EditPlan(safe) error = %v", err)
	}
	if len(plan.TeamMemberIDs) != 2 {
		t.Fatalf("roster not replaced: %v", plan.TeamMemberIDs)
	}
	for _, id := range plan.GeneratedTaskIDs {
		task := fix.env.repo.tasks[id]
		if id == started {
			if len(task.AssigneeIDs) != 4 {
				t.Fatalf("safe edit touched an in-progress task: %v", task.AssigneeIDs)
			}
			continue
		}
		if len(task.AssigneeIDs) != 2 {
			t.Fatalf("untouched new task %q assignees %v", id, task.AssigneeIDs)
		}
	}
	assignments, _ := fix.env.repo.ListAssignmentsByPlan(ctx, plan.ID)
	if len(assignments) != 2 {
		t.Fatalf("assignments not rebuilt for new roster, got %d", len(assignments))
	}

	if _, _, err := fix.env.svc.EditPlan(ctx, EditPlanInput{
		PlanID: plan.ID,
		Mode:   EditModeForce,
	}, "u-producer"); !errors.Is(err, ErrMissingJustification) {
		t.Fatalf("EditPlan(force, no justification) error = %v, want ErrMissingJustification", err)
	}

	plan, _, err = fix.env.svc.EditPlan(ctx, EditPlanInput{
		PlanID:        plan.ID,
		Mode:          EditModeForce,
		Justification: "crew swap after illness",
	}, "u-producer")
	if err != nil {
		t.Fatalf("EditPlan(force) error = %v", err)
	}
	for _, id := range plan.GeneratedTaskIDs {
		task := fix.env.repo.tasks[id]
		if len(task.AssigneeIDs) != 2 {
			t.Fatalf("force edit skipped task %q: %v", id, task.AssigneeIDs)
		}
		if task.ReassignNote != "crew swap after illness" {
			t.Fatalf("justification not persisted on task %q: %q", id, task.ReassignNote)
		}
	}
}

func TestArchiveAndRestorePlan(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	plan, _ := fix.generate(t, nil)

	plan, err := fix.env.svc.ArchivePlan(ctx, plan.ID, "u-producer")
	if err != nil {
		t.Fatalf("ArchivePlan() error = %v", err)
	}
	if plan.Status != domain.PlanStatusArchived || plan.ArchivedAt == nil {
		t.Fatalf("plan not archived: %#v", plan)
	}
	if plan.CanRestoreUntil == nil || !plan.CanRestoreUntil.Equal(plan.ArchivedAt.Add(domain.RestoreWindow)) {
		t.Fatalf("restore window not stamped: %v", plan.CanRestoreUntil)
	}
	tasks, _ := fix.env.repo.ListTasksByPlan(ctx, plan.ID)
	for _, task := range tasks {
		if !task.IsArchived() {
			t.Fatalf("generated task %q not archived", task.ID)
		}
	}
	assignments, _ := fix.env.repo.ListAssignmentsByPlan(ctx, plan.ID)
	for _, a := range assignments {
		if a.ArchivedAt == nil {
			t.Fatalf("assignment %q not archived", a.ID)
		}
	}
	if _, err := fix.env.svc.ArchivePlan(ctx, plan.ID, "u-producer"); !errors.Is(err, ErrAlreadyArchived) {
		t.Fatalf("ArchivePlan(again) error = %v, want ErrAlreadyArchived", err)
	}
	if _, _, err := fix.env.svc.EditPlan(ctx, EditPlanInput{PlanID: plan.ID, Mode: EditModeSafe}, "u-producer"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("EditPlan(archived) error = %v, want ErrInvalidTransition", err)
	}

	plan, err = fix.env.svc.RestorePlan(ctx, plan.ID, "u-producer")
	if err != nil {
		t.Fatalf("RestorePlan() error = %v", err)
	}
	if plan.Status != domain.PlanStatusDraft || plan.ArchivedAt != nil || plan.CanRestoreUntil != nil {
		t.Fatalf("plan not restored: %#v", plan)
	}
	tasks, _ = fix.env.repo.ListTasksByPlan(ctx, plan.ID)
	for _, task := range tasks {
		if task.IsArchived() {
			t.Fatalf("task %q still archived after restore", task.ID)
		}
	}
	assignments, _ = fix.env.repo.ListAssignmentsByPlan(ctx, plan.ID)
	for _, a := range assignments {
		if a.ArchivedAt != nil {
			t.Fatalf("assignment %q still archived after restore", a.ID)
		}
	}
}

func TestRestorePlanWindowExpiry(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	plan, _ := fix.generate(t, nil)

	if _, err := fix.env.svc.ArchivePlan(ctx, plan.ID, "u-producer"); err != nil {
		t.Fatalf("ArchivePlan() error = %v", err)
	}

	fix.env.now = fix.env.now.Add(domain.RestoreWindow + 24*time.Hour)
	if _, err := fix.env.svc.RestorePlan(ctx, plan.ID, "u-producer"); !errors.Is(err, ErrRestoreWindowExpired) {
		t.Fatalf("RestorePlan(expired) error = %v, want ErrRestoreWindowExpired", err)
	}
	stored := fix.env.repo.plans[plan.ID]
	if !stored.IsArchived() {
		t.Fatal("expired restore must change nothing")
	}
	for _, task := range fix.env.repo.tasks {
		if task.ProductionPlanID == plan.ID && !task.IsArchived() {
			t.Fatalf("expired restore touched task %q", task.ID)
		}
	}
}

func TestRestorePlanRequiresArchived(t *testing.T) {
	fix := seedProductionFixture(t)
	plan, _ := fix.generate(t, nil)
	if _, err := fix.env.svc.RestorePlan(context.Background(), plan.ID, "u-producer"); !errors.Is(err, ErrNotArchived) {
		t.Fatalf("RestorePlan(active) error = %v, want ErrNotArchived", err)
	}
}

func TestGeneratedTaskRunsToCompletion(t *testing.T) {
	fix := seedProductionFixture(t)
	ctx := context.Background()
	plan, _ := fix.generate(t, nil)

	taskID := plan.GeneratedTaskIDs[0]
	task, err := fix.env.repo.GetTask(ctx, taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != domain.StatusNew {
		t.Fatalf("generated task status = %q, want new", task.Status)
	}

	if _, err := fix.env.svc.StartTask(ctx, taskID, "u-outsider"); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("StartTask(non-assignee) error = %v, want ErrNotAuthorized", err)
	}

	task, err = fix.env.svc.StartTask(ctx, taskID, "u-m1")
	if err != nil {
		t.Fatalf("StartTask() error = %v", err)
	}
	if task.Status != domain.StatusInProgress {
		t.Fatalf("started task status = %q, want in_progress", task.Status)
	}

	if _, err := fix.env.svc.StartTask(ctx, taskID, "u-m1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("StartTask(in_progress) error = %v, want ErrInvalidTransition", err)
	}

	// Generated tasks carry no workflow template; submission completes them.
	task, err = fix.env.svc.SubmitTask(ctx, taskID, "u-m1")
	if err != nil {
		t.Fatalf("SubmitTask() error = %v", err)
	}
	if task.Status != domain.StatusCompleted || task.CompletedAt == nil {
		t.Fatalf("generated task did not complete: %#v", task)
	}
}
