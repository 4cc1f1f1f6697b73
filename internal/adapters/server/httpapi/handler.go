// Package httpapi provides the REST HTTP adapter for the workflow engine.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hylla/studioflow/internal/adapters/server/common"
	"github.com/hylla/studioflow/internal/app"
	"github.com/hylla/studioflow/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 8 << 20

// errMalformedBody reports an undecodable or trailing-content request body.
var errMalformedBody = errors.New("malformed request body")

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	svc common.WorkflowService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the workflow service.
func NewHandler(svc common.WorkflowService) *Handler {
	return &Handler{svc: svc}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "workflow service is not configured",
		})
		return
	}
	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleListTasks(w, r)
		case http.MethodPost:
			h.handleCreateTask(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 2 && parts[0] == "tasks":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleGetTask(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "steps":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListSteps(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "tasks" && parts[2] == "files":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAttachFile(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleTaskAction(w, r, parts[1], parts[2])
	case len(parts) == 2 && parts[0] == "files":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w, http.MethodDelete)
			return
		}
		h.handleRemoveFile(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "templates":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateTemplate(w, r)
	case len(parts) == 1 && parts[0] == "users":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateUser(w, r)
	case len(parts) == 1 && parts[0] == "projects":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateProject(w, r)
	case len(parts) == 3 && parts[0] == "projects" && parts[2] == "members":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAddMember(w, r, parts[1])
	case len(parts) == 1 && parts[0] == "plans":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleGeneratePlan(w, r)
	case len(parts) == 2 && parts[0] == "plans":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleGetPlan(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "plans" && parts[2] == "duplicates":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handlePlanDuplicates(w, r, parts[1])
	case len(parts) == 3 && parts[0] == "plans":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handlePlanAction(w, r, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "posts" && parts[2] == "archive":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleArchivePost(w, r, parts[1])
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

type createTaskRequest struct {
	ProjectID          string   `json:"project_id"`
	ClientID           string   `json:"client_id,omitempty"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	VoiceOver          string   `json:"voice_over,omitempty"`
	Department         string   `json:"department,omitempty"`
	TaskType           string   `json:"task_type,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	AssigneeIDs        []string `json:"assignee_ids,omitempty"`
	WorkflowTemplateID string   `json:"workflow_template_id,omitempty"`
	RequiresSocialPost bool     `json:"requires_social_post,omitempty"`
	Platforms          []string `json:"platforms,omitempty"`
	SocialManagerID    string   `json:"social_manager_id,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	DueAt              *string  `json:"due_at,omitempty"`
}

// handleCreateTask serves POST `/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	in := app.CreateTaskInput{
		ProjectID:          req.ProjectID,
		ClientID:           req.ClientID,
		Title:              req.Title,
		Description:        req.Description,
		VoiceOver:          req.VoiceOver,
		Department:         req.Department,
		TaskType:           req.TaskType,
		Priority:           domain.Priority(req.Priority),
		AssigneeIDs:        req.AssigneeIDs,
		WorkflowTemplateID: req.WorkflowTemplateID,
		RequiresSocialPost: req.RequiresSocialPost,
		Platforms:          req.Platforms,
		SocialManagerID:    req.SocialManagerID,
		Notes:              req.Notes,
	}
	if req.DueAt != nil {
		due, err := time.Parse(time.RFC3339, *req.DueAt)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: fmt.Sprintf("invalid due_at: %v", err),
			})
			return
		}
		in.DueAt = &due
	}
	task, err := h.svc.CreateTask(r.Context(), in)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.NewTaskView(task))
}

// handleListTasks serves GET `/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.URL.Query().Get("project_id"))
	if projectID == "" {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "project_id is required",
		})
		return
	}
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	tasks, err := h.svc.ListTasks(r.Context(), projectID, includeArchived)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	views := make([]common.TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, common.NewTaskView(task))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": views})
}

// handleGetTask serves GET `/tasks/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := h.svc.GetTask(r.Context(), taskID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskView(task))
}

// handleListSteps serves GET `/tasks/{id}/steps`.
func (h *Handler) handleListSteps(w http.ResponseWriter, r *http.Request, taskID string) {
	steps, err := h.svc.ListApprovalSteps(r.Context(), taskID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": common.NewStepViews(steps)})
}

type taskActionRequest struct {
	ActorID   string `json:"actor_id"`
	Comment   string `json:"comment,omitempty"`
	Message   string `json:"message,omitempty"`
	RevisorID string `json:"revisor_id,omitempty"`
	Approved  *bool  `json:"approved,omitempty"`
}

// handleTaskAction serves POST `/tasks/{id}/{action}` for lifecycle transitions.
func (h *Handler) handleTaskAction(w http.ResponseWriter, r *http.Request, taskID, action string) {
	var req taskActionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "actor_id is required",
		})
		return
	}

	var (
		task domain.Task
		err  error
	)
	ctx := r.Context()
	switch action {
	case "start":
		task, err = h.svc.StartTask(ctx, taskID, req.ActorID)
	case "submit":
		task, err = h.svc.SubmitTask(ctx, taskID, req.ActorID)
	case "approve":
		task, err = h.svc.ApproveStep(ctx, taskID, req.ActorID, req.Comment)
	case "revision":
		task, err = h.svc.RequestRevision(ctx, taskID, req.ActorID, req.Message, req.RevisorID)
	case "client-approval":
		if req.Approved == nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "approved is required",
			})
			return
		}
		task, err = h.svc.ResolveClientApproval(ctx, taskID, req.ActorID, *req.Approved, req.Comment, req.RevisorID)
	case "complete":
		task, err = h.svc.CompleteTask(ctx, taskID, req.ActorID)
	case "archive":
		task, err = h.svc.ArchiveTask(ctx, taskID, req.ActorID)
	case "restore":
		task, err = h.svc.RestoreTask(ctx, taskID, req.ActorID)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: fmt.Sprintf("unknown task action %q", action),
		})
		return
	}
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewTaskView(task))
}

type attachFileRequest struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"content_base64"`
}

// handleAttachFile serves POST `/tasks/{id}/files`.
func (h *Handler) handleAttachFile(w http.ResponseWriter, r *http.Request, taskID string) {
	var req attachFileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: fmt.Sprintf("invalid content_base64: %v", err),
		})
		return
	}
	ref, err := h.svc.AttachFileToTask(r.Context(), taskID, req.Name, data)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, common.NewFileRefView(ref))
}

// handleRemoveFile serves DELETE `/files/{id}`.
func (h *Handler) handleRemoveFile(w http.ResponseWriter, r *http.Request, fileID string) {
	if err := h.svc.RemoveFile(r.Context(), fileID); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTemplateRequest struct {
	Name                   string                `json:"name"`
	Steps                  []templateStepRequest `json:"steps"`
	RequiresClientApproval bool                  `json:"requires_client_approval,omitempty"`
}

type templateStepRequest struct {
	Order          int    `json:"order"`
	Name           string `json:"name,omitempty"`
	Kind           string `json:"kind"`
	UserID         string `json:"user_id,omitempty"`
	ProjectRoleKey string `json:"project_role_key,omitempty"`
	SystemRoleID   string `json:"system_role_id,omitempty"`
}

// handleCreateTemplate serves POST `/templates`.
func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	steps := make([]domain.WorkflowStep, 0, len(req.Steps))
	for _, s := range req.Steps {
		steps = append(steps, domain.WorkflowStep{
			Order:          s.Order,
			Name:           s.Name,
			Kind:           domain.StepKind(s.Kind),
			UserID:         s.UserID,
			ProjectRoleKey: s.ProjectRoleKey,
			SystemRoleID:   s.SystemRoleID,
		})
	}
	template, err := h.svc.CreateWorkflowTemplate(r.Context(), req.Name, steps, req.RequiresClientApproval)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":                       template.ID,
		"name":                     template.Name,
		"requires_client_approval": template.RequiresClientApproval,
	})
}

type createUserRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Department string   `json:"department,omitempty"`
	RoleIDs    []string `json:"role_ids,omitempty"`
}

// handleCreateUser serves POST `/users`.
func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	user, err := h.svc.CreateUser(r.Context(), req.Name, req.Email, req.Department, req.RoleIDs)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"department": user.Department,
		"role_ids":   user.RoleIDs,
	})
}

type createProjectRequest struct {
	ClientID    string `json:"client_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// handleCreateProject serves POST `/projects`.
func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	project, err := h.svc.CreateProject(r.Context(), req.ClientID, req.Name, req.Description)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        project.ID,
		"client_id": project.ClientID,
		"name":      project.Name,
	})
}

type addMemberRequest struct {
	UserID        string `json:"user_id"`
	RoleInProject string `json:"role_in_project,omitempty"`
}

// handleAddMember serves POST `/projects/{id}/members`.
func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request, projectID string) {
	var req addMemberRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	member, err := h.svc.AddProjectMember(r.Context(), projectID, req.UserID, req.RoleInProject)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              member.ID,
		"project_id":      member.ProjectID,
		"user_id":         member.UserID,
		"role_in_project": member.RoleInProject,
	})
}

type overrideRequest struct {
	UserID         string `json:"user_id"`
	AuthorizedByID string `json:"authorized_by_id"`
	Reason         string `json:"reason"`
}

type generatePlanRequest struct {
	ActorID         string            `json:"actor_id"`
	Name            string            `json:"name"`
	ProjectID       string            `json:"project_id"`
	ProductionDate  string            `json:"production_date"`
	CalendarItemIDs []string          `json:"calendar_item_ids,omitempty"`
	ManualTaskIDs   []string          `json:"manual_task_ids,omitempty"`
	TeamMemberIDs   []string          `json:"team_member_ids"`
	Overrides       []overrideRequest `json:"overrides,omitempty"`
}

// handleGeneratePlan serves POST `/plans`.
func (h *Handler) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	date, err := parsePlanDate(req.ProductionDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
		return
	}
	in := app.GeneratePlanInput{
		Name:            req.Name,
		ProjectID:       req.ProjectID,
		ProductionDate:  date,
		CalendarItemIDs: req.CalendarItemIDs,
		ManualTaskIDs:   req.ManualTaskIDs,
		TeamMemberIDs:   req.TeamMemberIDs,
		Overrides:       convertOverrides(req.Overrides),
	}
	plan, warnings, err := h.svc.GeneratePlan(r.Context(), in, req.ActorID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"plan":     common.NewPlanView(plan),
		"warnings": common.NewDuplicateWarningViews(warnings),
	})
}

// handleGetPlan serves GET `/plans/{id}`.
func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request, planID string) {
	plan, err := h.svc.GetProductionPlan(r.Context(), planID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewPlanView(plan))
}

// handlePlanDuplicates serves GET `/plans/{id}/duplicates`.
func (h *Handler) handlePlanDuplicates(w http.ResponseWriter, r *http.Request, planID string) {
	plan, err := h.svc.GetProductionPlan(r.Context(), planID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	warnings, err := h.svc.DetectPlanDuplicates(r.Context(), plan)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"warnings": common.NewDuplicateWarningViews(warnings),
	})
}

type editPlanRequest struct {
	ActorID        string            `json:"actor_id"`
	Mode           string            `json:"mode,omitempty"`
	Justification  string            `json:"justification,omitempty"`
	TeamMemberIDs  []string          `json:"team_member_ids,omitempty"`
	ProductionDate *string           `json:"production_date,omitempty"`
	Overrides      []overrideRequest `json:"overrides,omitempty"`
}

type planActionRequest struct {
	ActorID string `json:"actor_id"`
}

// handlePlanAction serves POST `/plans/{id}/{action}`.
func (h *Handler) handlePlanAction(w http.ResponseWriter, r *http.Request, planID, action string) {
	ctx := r.Context()
	switch action {
	case "edit":
		var req editPlanRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		in := app.EditPlanInput{
			PlanID:        planID,
			Mode:          app.EditMode(req.Mode),
			Justification: req.Justification,
			TeamMemberIDs: req.TeamMemberIDs,
			Overrides:     convertOverrides(req.Overrides),
		}
		if req.ProductionDate != nil {
			date, err := parsePlanDate(*req.ProductionDate)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, APIError{
					Code:    "invalid_request",
					Message: err.Error(),
				})
				return
			}
			in.ProductionDate = &date
		}
		plan, warnings, err := h.svc.EditPlan(ctx, in, req.ActorID)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"plan":     common.NewPlanView(plan),
			"warnings": common.NewDuplicateWarningViews(warnings),
		})
	case "archive", "restore":
		var req planActionRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		var (
			plan domain.ProductionPlan
			err  error
		)
		if action == "archive" {
			plan, err = h.svc.ArchivePlan(ctx, planID, req.ActorID)
		} else {
			plan, err = h.svc.RestorePlan(ctx, planID, req.ActorID)
		}
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, common.NewPlanView(plan))
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: fmt.Sprintf("unknown plan action %q", action),
		})
	}
}

// handleArchivePost serves POST `/posts/{id}/archive`.
func (h *Handler) handleArchivePost(w http.ResponseWriter, r *http.Request, postID string) {
	var req planActionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	post, err := h.svc.ArchiveSocialPost(r.Context(), postID, req.ActorID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, common.NewPostView(post))
}

// convertOverrides maps request overrides onto app inputs.
func convertOverrides(reqs []overrideRequest) []app.OverrideInput {
	out := make([]app.OverrideInput, 0, len(reqs))
	for _, o := range reqs {
		out = append(out, app.OverrideInput{
			UserID:         o.UserID,
			AuthorizedByID: o.AuthorizedByID,
			Reason:         o.Reason,
		})
	}
	return out
}

// parsePlanDate accepts RFC 3339 timestamps or plain dates.
func parsePlanDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("production_date is required")
	}
	if date, err := time.Parse(time.RFC3339, v); err == nil {
		return date, nil
	}
	date, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid production_date %q", v)
	}
	return date, nil
}

// splitPath canonicalizes one request path into route segments.
func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// writeErrorFrom maps service errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	if errors.Is(err, errMalformedBody) {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
		return
	}
	code := common.ErrorCode(err)
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	writeJSONError(w, common.HTTPStatus(code), APIError{
		Code:    code,
		Message: message,
	})
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errMalformedBody, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errMalformedBody)
	}
	return nil
}
