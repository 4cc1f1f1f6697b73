package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/studioflow/internal/app"
	"github.com/hylla/studioflow/internal/domain"
)

// stubWorkflow provides deterministic service responses for handler tests.
type stubWorkflow struct {
	task     domain.Task
	tasks    []domain.Task
	steps    []domain.ApprovalStep
	plan     domain.ProductionPlan
	warnings []app.DuplicateWarning
	post     domain.SocialPost
	ref      domain.FileRef
	template domain.WorkflowTemplate
	user     domain.User
	project  domain.Project
	member   domain.ProjectMember
	err      error

	calls          []string
	lastCreateTask app.CreateTaskInput
	lastTaskID     string
	lastActorID    string
	lastComment    string
	lastMessage    string
	lastRevisorID  string
	lastApproved   bool
	lastGenerate   app.GeneratePlanInput
	lastEdit       app.EditPlanInput
	lastFileName   string
	lastFileData   []byte
}

func (s *stubWorkflow) record(name string) {
	s.calls = append(s.calls, name)
}

func (s *stubWorkflow) CreateTask(_ context.Context, in app.CreateTaskInput) (domain.Task, error) {
	s.record("CreateTask")
	s.lastCreateTask = in
	return s.task, s.err
}

func (s *stubWorkflow) GetTask(_ context.Context, taskID string) (domain.Task, error) {
	s.record("GetTask")
	s.lastTaskID = taskID
	return s.task, s.err
}

func (s *stubWorkflow) ListTasks(_ context.Context, projectID string, includeArchived bool) ([]domain.Task, error) {
	s.record("ListTasks")
	s.lastTaskID = projectID
	s.lastApproved = includeArchived
	return s.tasks, s.err
}

func (s *stubWorkflow) ListApprovalSteps(_ context.Context, taskID string) ([]domain.ApprovalStep, error) {
	s.record("ListApprovalSteps")
	s.lastTaskID = taskID
	return s.steps, s.err
}

func (s *stubWorkflow) StartTask(_ context.Context, taskID, actorID string) (domain.Task, error) {
	s.record("StartTask")
	s.lastTaskID, s.lastActorID = taskID, actorID
	return s.task, s.err
}

func (s *stubWorkflow) SubmitTask(_ context.Context, taskID, actorID string) (domain.Task, error) {
	s.record("SubmitTask")
	s.lastTaskID, s.lastActorID = taskID, actorID
	return s.task, s.err
}

func (s *stubWorkflow) ApproveStep(_ context.Context, taskID, actorID, comment string) (domain.Task, error) {
	s.record("ApproveStep")
	s.lastTaskID, s.lastActorID, s.lastComment = taskID, actorID, comment
	return s.task, s.err
}

func (s *stubWorkflow) RequestRevision(_ context.Context, taskID, actorID, message, revisorID string) (domain.Task, error) {
	s.record("RequestRevision")
	s.lastTaskID, s.lastActorID, s.lastMessage, s.lastRevisorID = taskID, actorID, message, revisorID
	return s.task, s.err
}

func (s *stubWorkflow) ResolveClientApproval(_ context.Context, taskID, actorID string, approved bool, comment, revisorID string) (domain.Task, error) {
	s.record("ResolveClientApproval")
	s.lastTaskID, s.lastActorID, s.lastApproved = taskID, actorID, approved
	s.lastComment, s.lastRevisorID = comment, revisorID
	return s.task, s.err
}

func (s *stubWorkflow) CompleteTask(_ context.Context, taskID, actorID string) (domain.Task, error) {
	s.record("CompleteTask")
	s.lastTaskID, s.lastActorID = taskID, actorID
	return s.task, s.err
}

func (s *stubWorkflow) ArchiveTask(_ context.Context, taskID, actorID string) (domain.Task, error) {
	s.record("ArchiveTask")
	s.lastTaskID, s.lastActorID = taskID, actorID
	return s.task, s.err
}

func (s *stubWorkflow) RestoreTask(_ context.Context, taskID, actorID string) (domain.Task, error) {
	s.record("RestoreTask")
	s.lastTaskID, s.lastActorID = taskID, actorID
	return s.task, s.err
}

func (s *stubWorkflow) ArchiveSocialPost(_ context.Context, postID, actorID string) (domain.SocialPost, error) {
	s.record("ArchiveSocialPost")
	s.lastTaskID, s.lastActorID = postID, actorID
	return s.post, s.err
}

func (s *stubWorkflow) CreateWorkflowTemplate(_ context.Context, name string, steps []domain.WorkflowStep, requiresClientApproval bool) (domain.WorkflowTemplate, error) {
	s.record("CreateWorkflowTemplate")
	return s.template, s.err
}

func (s *stubWorkflow) CreateUser(_ context.Context, name, email, department string, roleIDs []string) (domain.User, error) {
	s.record("CreateUser")
	return s.user, s.err
}

func (s *stubWorkflow) CreateProject(_ context.Context, clientID, name, description string) (domain.Project, error) {
	s.record("CreateProject")
	return s.project, s.err
}

func (s *stubWorkflow) AddProjectMember(_ context.Context, projectID, userID, roleInProject string) (domain.ProjectMember, error) {
	s.record("AddProjectMember")
	return s.member, s.err
}

func (s *stubWorkflow) GeneratePlan(_ context.Context, in app.GeneratePlanInput, actorID string) (domain.ProductionPlan, []app.DuplicateWarning, error) {
	s.record("GeneratePlan")
	s.lastGenerate, s.lastActorID = in, actorID
	return s.plan, s.warnings, s.err
}

func (s *stubWorkflow) EditPlan(_ context.Context, in app.EditPlanInput, actorID string) (domain.ProductionPlan, []app.DuplicateWarning, error) {
	s.record("EditPlan")
	s.lastEdit, s.lastActorID = in, actorID
	return s.plan, s.warnings, s.err
}

func (s *stubWorkflow) DetectPlanDuplicates(_ context.Context, plan domain.ProductionPlan) ([]app.DuplicateWarning, error) {
	s.record("DetectPlanDuplicates")
	return s.warnings, s.err
}

func (s *stubWorkflow) ArchivePlan(_ context.Context, planID, actorID string) (domain.ProductionPlan, error) {
	s.record("ArchivePlan")
	s.lastTaskID, s.lastActorID = planID, actorID
	return s.plan, s.err
}

func (s *stubWorkflow) RestorePlan(_ context.Context, planID, actorID string) (domain.ProductionPlan, error) {
	s.record("RestorePlan")
	s.lastTaskID, s.lastActorID = planID, actorID
	return s.plan, s.err
}

func (s *stubWorkflow) GetProductionPlan(_ context.Context, planID string) (domain.ProductionPlan, error) {
	s.record("GetProductionPlan")
	s.lastTaskID = planID
	return s.plan, s.err
}

func (s *stubWorkflow) AttachFileToTask(_ context.Context, taskID, name string, data []byte) (domain.FileRef, error) {
	s.record("AttachFileToTask")
	s.lastTaskID, s.lastFileName, s.lastFileData = taskID, name, data
	return s.ref, s.err
}

func (s *stubWorkflow) RemoveFile(_ context.Context, fileID string) error {
	s.record("RemoveFile")
	s.lastTaskID = fileID
	return s.err
}

func newTestServer(t *testing.T, stub *stubWorkflow) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(stub))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandlerCreateTask(t *testing.T) {
	stub := &stubWorkflow{task: domain.Task{ID: "task-1", ProjectID: "proj-1", Title: "Edit reel", Status: domain.StatusNew, Priority: domain.PriorityMedium}}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks", `{
		"project_id": "proj-1",
		"title": "Edit reel",
		"assignee_ids": ["u1"],
		"workflow_template_id": "wf-1",
		"due_at": "2026-04-01T09:00:00Z"
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got map[string]any
	decodeBody(t, resp, &got)
	if got["id"] != "task-1" {
		t.Fatalf("id = %v, want task-1", got["id"])
	}
	if stub.lastCreateTask.Title != "Edit reel" {
		t.Fatalf("title = %q, want %q", stub.lastCreateTask.Title, "Edit reel")
	}
	if stub.lastCreateTask.DueAt == nil || !stub.lastCreateTask.DueAt.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("due_at = %v, want 2026-04-01T09:00:00Z", stub.lastCreateTask.DueAt)
	}
}

func TestHandlerCreateTaskRejectsUnknownFields(t *testing.T) {
	stub := &stubWorkflow{}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks", `{"title": "x", "bogus": true}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("calls = %v, want none", stub.calls)
	}
}

func TestHandlerListTasksRequiresProjectID(t *testing.T) {
	srv := newTestServer(t, &stubWorkflow{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/tasks", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var envelope ErrorEnvelope
	decodeBody(t, resp, &envelope)
	if envelope.Error.Code != "invalid_request" {
		t.Fatalf("code = %q, want invalid_request", envelope.Error.Code)
	}
}

func TestHandlerListTasksPassesFilters(t *testing.T) {
	stub := &stubWorkflow{tasks: []domain.Task{{ID: "task-1"}, {ID: "task-2"}}}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodGet, srv.URL+"/tasks?project_id=proj-1&include_archived=true", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if stub.lastTaskID != "proj-1" || !stub.lastApproved {
		t.Fatalf("filters = (%q, %v), want (proj-1, true)", stub.lastTaskID, stub.lastApproved)
	}

	var got struct {
		Tasks []map[string]any `json:"tasks"`
	}
	decodeBody(t, resp, &got)
	if len(got.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(got.Tasks))
	}
}

func TestHandlerTaskActions(t *testing.T) {
	cases := []struct {
		action   string
		body     string
		wantCall string
	}{
		{"start", `{"actor_id": "u1"}`, "StartTask"},
		{"submit", `{"actor_id": "u1"}`, "SubmitTask"},
		{"approve", `{"actor_id": "u1", "comment": "ship it"}`, "ApproveStep"},
		{"revision", `{"actor_id": "u1", "message": "fix audio", "revisor_id": "u2"}`, "RequestRevision"},
		{"client-approval", `{"actor_id": "u1", "approved": true}`, "ResolveClientApproval"},
		{"complete", `{"actor_id": "u1"}`, "CompleteTask"},
		{"archive", `{"actor_id": "u1"}`, "ArchiveTask"},
		{"restore", `{"actor_id": "u1"}`, "RestoreTask"},
	}
	for _, tc := range cases {
		t.Run(tc.action, func(t *testing.T) {
			stub := &stubWorkflow{task: domain.Task{ID: "task-1"}}
			srv := newTestServer(t, stub)

			resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/"+tc.action, tc.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			if len(stub.calls) != 1 || stub.calls[0] != tc.wantCall {
				t.Fatalf("calls = %v, want [%s]", stub.calls, tc.wantCall)
			}
			if stub.lastTaskID != "task-1" || stub.lastActorID != "u1" {
				t.Fatalf("args = (%q, %q), want (task-1, u1)", stub.lastTaskID, stub.lastActorID)
			}
		})
	}
}

func TestHandlerTaskActionRequiresActor(t *testing.T) {
	stub := &stubWorkflow{}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/submit", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("calls = %v, want none", stub.calls)
	}
}

func TestHandlerClientApprovalRequiresVerdict(t *testing.T) {
	srv := newTestServer(t, &stubWorkflow{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/client-approval", `{"actor_id": "u1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", app.ErrNotFound, http.StatusNotFound, "not_found"},
		{"not authorized", app.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
		{"leave conflict", app.ErrLeaveConflict, http.StatusConflict, "leave_conflict"},
		{"invalid transition", app.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"invalid title", domain.ErrInvalidTitle, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &stubWorkflow{err: tc.err})

			resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/submit", `{"actor_id": "u1"}`)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}

			var envelope ErrorEnvelope
			decodeBody(t, resp, &envelope)
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", envelope.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubWorkflow{})

	resp := doJSON(t, http.MethodDelete, srv.URL+"/tasks", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
	if allow := resp.Header.Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("Allow = %q, want POST listed", allow)
	}
}

func TestHandlerUnknownRoute(t *testing.T) {
	srv := newTestServer(t, &stubWorkflow{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestHandlerAttachFile(t *testing.T) {
	stub := &stubWorkflow{ref: domain.FileRef{ID: "file-1", TaskID: "task-1", Name: "cut.mp4", Path: "/files/tasks/task-1/cut.mp4"}}
	srv := newTestServer(t, stub)

	encoded := base64.StdEncoding.EncodeToString([]byte("frame data"))
	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/files", `{"name": "cut.mp4", "content_base64": "`+encoded+`"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if stub.lastFileName != "cut.mp4" || string(stub.lastFileData) != "frame data" {
		t.Fatalf("upload = (%q, %q), want (cut.mp4, frame data)", stub.lastFileName, stub.lastFileData)
	}
}

func TestHandlerAttachFileRejectsBadEncoding(t *testing.T) {
	srv := newTestServer(t, &stubWorkflow{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/tasks/task-1/files", `{"name": "cut.mp4", "content_base64": "not base64!!"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandlerRemoveFile(t *testing.T) {
	stub := &stubWorkflow{}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/files/file-1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if stub.lastTaskID != "file-1" {
		t.Fatalf("file id = %q, want file-1", stub.lastTaskID)
	}
}

func TestHandlerGeneratePlan(t *testing.T) {
	stub := &stubWorkflow{
		plan:     domain.ProductionPlan{ID: "plan-1", Name: "Tuesday shoot", Status: domain.PlanStatusDraft},
		warnings: []app.DuplicateWarning{{ItemID: "cal-1", Kind: domain.SourceCalendar, PlanIDs: []string{"plan-0"}}},
	}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/plans", `{
		"actor_id": "u1",
		"name": "Tuesday shoot",
		"project_id": "proj-1",
		"production_date": "2026-04-07",
		"calendar_item_ids": ["cal-1"],
		"team_member_ids": ["u2", "u3"]
	}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !stub.lastGenerate.ProductionDate.Equal(time.Date(2026, 4, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("production date = %v, want 2026-04-07", stub.lastGenerate.ProductionDate)
	}
	if stub.lastActorID != "u1" {
		t.Fatalf("actor = %q, want u1", stub.lastActorID)
	}

	var got struct {
		Plan     map[string]any   `json:"plan"`
		Warnings []map[string]any `json:"warnings"`
	}
	decodeBody(t, resp, &got)
	if got.Plan["id"] != "plan-1" {
		t.Fatalf("plan id = %v, want plan-1", got.Plan["id"])
	}
	if len(got.Warnings) != 1 || got.Warnings[0]["item_id"] != "cal-1" {
		t.Fatalf("warnings = %v, want one for cal-1", got.Warnings)
	}
}

func TestHandlerEditPlan(t *testing.T) {
	stub := &stubWorkflow{plan: domain.ProductionPlan{ID: "plan-1"}}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/plans/plan-1/edit", `{
		"actor_id": "u1",
		"mode": "regenerate",
		"justification": "weather delay",
		"production_date": "2026-04-08"
	}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if stub.lastEdit.PlanID != "plan-1" || stub.lastEdit.Justification != "weather delay" {
		t.Fatalf("edit input = %+v", stub.lastEdit)
	}
	if stub.lastEdit.ProductionDate == nil {
		t.Fatal("production date not forwarded")
	}
}

func TestHandlerPlanDuplicates(t *testing.T) {
	stub := &stubWorkflow{
		plan:     domain.ProductionPlan{ID: "plan-1"},
		warnings: []app.DuplicateWarning{{ItemID: "task-9", Kind: domain.SourceTask, PlanIDs: []string{"plan-2"}}},
	}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodGet, srv.URL+"/plans/plan-1/duplicates", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if len(stub.calls) != 2 || stub.calls[0] != "GetProductionPlan" || stub.calls[1] != "DetectPlanDuplicates" {
		t.Fatalf("calls = %v", stub.calls)
	}
}

func TestHandlerArchivePost(t *testing.T) {
	stub := &stubWorkflow{post: domain.SocialPost{ID: "post-1", Status: domain.SocialPostPending}}
	srv := newTestServer(t, stub)

	resp := doJSON(t, http.MethodPost, srv.URL+"/posts/post-1/archive", `{"actor_id": "u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if stub.lastTaskID != "post-1" || stub.lastActorID != "u1" {
		t.Fatalf("args = (%q, %q), want (post-1, u1)", stub.lastTaskID, stub.lastActorID)
	}
}
