package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/studioflow/internal/domain"
)

type fakeRepo struct {
	projects        map[string]domain.Project
	users           map[string]domain.User
	userOrder       []string
	roles           map[string]domain.Role
	members         []domain.ProjectMember
	leaves          []domain.LeaveRequest
	templates       map[string]domain.WorkflowTemplate
	tasks           map[string]domain.Task
	steps           map[string]domain.ApprovalStep
	clientApprovals map[string]domain.ClientApproval
	posts           map[string]domain.SocialPost
	plans           map[string]domain.ProductionPlan
	assignments     map[string]domain.ProductionAssignment
	calendarItems   map[string]domain.CalendarItem
	folders         map[string]domain.Folder
	fileRefs        map[string]domain.FileRef

	batchErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects:        map[string]domain.Project{},
		users:           map[string]domain.User{},
		roles:           map[string]domain.Role{},
		templates:       map[string]domain.WorkflowTemplate{},
		tasks:           map[string]domain.Task{},
		steps:           map[string]domain.ApprovalStep{},
		clientApprovals: map[string]domain.ClientApproval{},
		posts:           map[string]domain.SocialPost{},
		plans:           map[string]domain.ProductionPlan{},
		assignments:     map[string]domain.ProductionAssignment{},
		calendarItems:   map[string]domain.CalendarItem{},
		folders:         map[string]domain.Folder{},
		fileRefs:        map[string]domain.FileRef{},
	}
}

func (f *fakeRepo) PutProject(_ context.Context, p domain.Project) error {
	f.projects[p.ID] = p
	return nil
}

func (f *fakeRepo) GetProject(_ context.Context, id string) (domain.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) PutUser(_ context.Context, u domain.User) error {
	if _, ok := f.users[u.ID]; !ok {
		f.userOrder = append(f.userOrder, u.ID)
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) GetUser(_ context.Context, id string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, id := range f.userOrder {
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeRepo) PutRole(_ context.Context, r domain.Role) error {
	f.roles[r.ID] = r
	return nil
}

func (f *fakeRepo) GetRole(_ context.Context, id string) (domain.Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return domain.Role{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeRepo) PutProjectMember(_ context.Context, m domain.ProjectMember) error {
	f.members = append(f.members, m)
	return nil
}

func (f *fakeRepo) ListProjectMembers(_ context.Context, projectID string) ([]domain.ProjectMember, error) {
	out := []domain.ProjectMember{}
	for _, m := range f.members {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) PutLeaveRequest(_ context.Context, l domain.LeaveRequest) error {
	f.leaves = append(f.leaves, l)
	return nil
}

func (f *fakeRepo) ListLeaveRequestsForUsers(_ context.Context, userIDs []string) ([]domain.LeaveRequest, error) {
	wanted := map[string]bool{}
	for _, id := range userIDs {
		wanted[id] = true
	}
	out := []domain.LeaveRequest{}
	for _, l := range f.leaves {
		if wanted[l.UserID] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) PutWorkflowTemplate(_ context.Context, t domain.WorkflowTemplate) error {
	f.templates[t.ID] = t
	return nil
}

func (f *fakeRepo) GetWorkflowTemplate(_ context.Context, id string) (domain.WorkflowTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return domain.WorkflowTemplate{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) ListTasksByProject(_ context.Context, projectID string, includeArchived bool) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if !includeArchived && t.IsArchived() {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) ListTasksByPlan(_ context.Context, planID string) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.ProductionPlanID == planID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListApprovalSteps(_ context.Context, taskID string) ([]domain.ApprovalStep, error) {
	out := []domain.ApprovalStep{}
	for level := 0; ; level++ {
		found := false
		for _, s := range f.steps {
			if s.TaskID == taskID && s.Level == level {
				out = append(out, s)
				found = true
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) GetClientApprovalByTask(_ context.Context, taskID string) (domain.ClientApproval, error) {
	for _, c := range f.clientApprovals {
		if c.TaskID == taskID {
			return c, nil
		}
	}
	return domain.ClientApproval{}, ErrNotFound
}

func (f *fakeRepo) GetSocialPost(_ context.Context, id string) (domain.SocialPost, error) {
	p, ok := f.posts[id]
	if !ok {
		return domain.SocialPost{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetProductionPlan(_ context.Context, id string) (domain.ProductionPlan, error) {
	p, ok := f.plans[id]
	if !ok {
		return domain.ProductionPlan{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ListProductionPlans(_ context.Context) ([]domain.ProductionPlan, error) {
	out := []domain.ProductionPlan{}
	for _, p := range f.plans {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) ListAssignmentsByPlan(_ context.Context, planID string) ([]domain.ProductionAssignment, error) {
	out := []domain.ProductionAssignment{}
	for _, a := range f.assignments {
		if a.PlanID == planID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) PutCalendarItem(_ context.Context, item domain.CalendarItem) error {
	f.calendarItems[item.ID] = item
	return nil
}

func (f *fakeRepo) GetCalendarItem(_ context.Context, id string) (domain.CalendarItem, error) {
	item, ok := f.calendarItems[id]
	if !ok {
		return domain.CalendarItem{}, ErrNotFound
	}
	return item, nil
}

func (f *fakeRepo) FindFolder(_ context.Context, parentID, name string) (domain.Folder, error) {
	for _, folder := range f.folders {
		if folder.ParentID == parentID && folder.Name == name {
			return folder, nil
		}
	}
	return domain.Folder{}, ErrNotFound
}

func (f *fakeRepo) PutFileRef(_ context.Context, ref domain.FileRef) error {
	f.fileRefs[ref.ID] = ref
	return nil
}

func (f *fakeRepo) GetFileRef(_ context.Context, id string) (domain.FileRef, error) {
	ref, ok := f.fileRefs[id]
	if !ok {
		return domain.FileRef{}, ErrNotFound
	}
	return ref, nil
}

func (f *fakeRepo) DeleteFileRef(_ context.Context, id string) error {
	delete(f.fileRefs, id)
	return nil
}

func (f *fakeRepo) ListFileRefsByTask(_ context.Context, taskID string) ([]domain.FileRef, error) {
	out := []domain.FileRef{}
	for _, ref := range f.fileRefs {
		if ref.TaskID == taskID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListFileRefsByPost(_ context.Context, postID string) ([]domain.FileRef, error) {
	out := []domain.FileRef{}
	for _, ref := range f.fileRefs {
		if ref.PostID == postID {
			out = append(out, ref)
		}
	}
	return out, nil
}

// fakeBatchTx stages writes and applies them only when the batch closure
// succeeds, mirroring the all-or-nothing store contract.
type fakeBatchTx struct {
	repo *fakeRepo
	ops  []func()
}

func (t *fakeBatchTx) PutTask(task domain.Task) error {
	t.ops = append(t.ops, func() { t.repo.tasks[task.ID] = task })
	return nil
}

func (t *fakeBatchTx) PutApprovalStep(step domain.ApprovalStep) error {
	t.ops = append(t.ops, func() { t.repo.steps[step.ID] = step })
	return nil
}

func (t *fakeBatchTx) PutClientApproval(c domain.ClientApproval) error {
	t.ops = append(t.ops, func() { t.repo.clientApprovals[c.ID] = c })
	return nil
}

func (t *fakeBatchTx) PutSocialPost(p domain.SocialPost) error {
	t.ops = append(t.ops, func() { t.repo.posts[p.ID] = p })
	return nil
}

func (t *fakeBatchTx) PutProductionPlan(p domain.ProductionPlan) error {
	t.ops = append(t.ops, func() { t.repo.plans[p.ID] = p })
	return nil
}

func (t *fakeBatchTx) PutAssignment(a domain.ProductionAssignment) error {
	t.ops = append(t.ops, func() { t.repo.assignments[a.ID] = a })
	return nil
}

func (t *fakeBatchTx) DeleteAssignmentsByPlan(planID string) error {
	t.ops = append(t.ops, func() {
		for id, a := range t.repo.assignments {
			if a.PlanID == planID {
				delete(t.repo.assignments, id)
			}
		}
	})
	return nil
}

func (t *fakeBatchTx) PutCalendarItem(item domain.CalendarItem) error {
	t.ops = append(t.ops, func() { t.repo.calendarItems[item.ID] = item })
	return nil
}

func (t *fakeBatchTx) PutFolder(folder domain.Folder) error {
	t.ops = append(t.ops, func() { t.repo.folders[folder.ID] = folder })
	return nil
}

func (t *fakeBatchTx) PutFileRef(ref domain.FileRef) error {
	t.ops = append(t.ops, func() { t.repo.fileRefs[ref.ID] = ref })
	return nil
}

func (f *fakeRepo) Batch(_ context.Context, fn func(tx BatchTx) error) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	tx := &fakeBatchTx{repo: f}
	if err := fn(tx); err != nil {
		return err
	}
	for _, op := range tx.ops {
		op()
	}
	return nil
}

type fakeFiles struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{uploads: map[string][]byte{}}
}

func (f *fakeFiles) Upload(_ context.Context, path string, data []byte) (string, error) {
	f.uploads[path] = data
	return "https://files.example/" + path, nil
}

func (f *fakeFiles) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type notification struct {
	userIDs []string
	kind    string
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) Notify(_ context.Context, userIDs []string, kind, title, message string) {
	f.sent = append(f.sent, notification{userIDs: userIDs, kind: kind})
}

func (f *fakeNotifier) kinds() []string {
	out := make([]string, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.kind)
	}
	return out
}

type testEnv struct {
	repo     *fakeRepo
	files    *fakeFiles
	notifier *fakeNotifier
	svc      *Service
	now      time.Time
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	files := newFakeFiles()
	notifier := &fakeNotifier{}
	env := &testEnv{
		repo:     repo,
		files:    files,
		notifier: notifier,
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	seq := 0
	idGen := func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	clock := func() time.Time {
		env.now = env.now.Add(time.Second)
		return env.now
	}
	env.svc = NewService(repo, files, notifier, idGen, clock)
	return env
}

func (e *testEnv) hasNotification(kind string) bool {
	for _, k := range e.notifier.kinds() {
		if strings.EqualFold(k, kind) {
			return true
		}
	}
	return false
}
