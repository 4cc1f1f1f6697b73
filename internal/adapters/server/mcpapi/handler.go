// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hylla/studioflow/internal/adapters/server/common"
	"github.com/hylla/studioflow/internal/app"
	"github.com/hylla/studioflow/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the workflow tools.
func NewHandler(cfg Config, svc common.WorkflowService) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("workflow service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, svc)
	registerLifecycleTools(mcpSrv, svc)
	registerPlanTools(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "studioflow"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerTaskTools registers task creation and lookup tools.
func registerTaskTools(srv *mcpserver.MCPServer, svc common.WorkflowService) {
	srv.AddTool(
		mcp.NewTool(
			"studioflow.create_task",
			mcp.WithDescription("Create one task, optionally binding a workflow template and assignees."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Task description")),
			mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum("low", "medium", "high", "urgent")),
			mcp.WithString("assignee_ids", mcp.Description("Comma-separated assignee user ids")),
			mcp.WithString("workflow_template_id", mcp.Description("Workflow template to bind")),
			mcp.WithBoolean("requires_social_post", mcp.Description("Whether terminal approval hands over a social post")),
			mcp.WithString("platforms", mcp.Description("Comma-separated social platforms")),
			mcp.WithString("social_manager_id", mcp.Description("Social manager receiving the handover")),
			mcp.WithString("due_at", mcp.Description("Due timestamp in RFC 3339")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := app.CreateTaskInput{
				ProjectID:          projectID,
				Title:              title,
				Description:        req.GetString("description", ""),
				Priority:           domain.Priority(req.GetString("priority", "")),
				AssigneeIDs:        splitIDs(req.GetString("assignee_ids", "")),
				WorkflowTemplateID: req.GetString("workflow_template_id", ""),
				RequiresSocialPost: req.GetBool("requires_social_post", false),
				Platforms:          splitIDs(req.GetString("platforms", "")),
				SocialManagerID:    req.GetString("social_manager_id", ""),
			}
			if raw := req.GetString("due_at", ""); raw != "" {
				due, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return mcp.NewToolResultError("invalid_request: invalid due_at: " + err.Error()), nil
				}
				in.DueAt = &due
			}
			task, err := svc.CreateTask(ctx, in)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskView(task))
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"studioflow.list_tasks",
			mcp.WithDescription("List tasks for one project."),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithBoolean("include_archived", mcp.Description("Include archived tasks")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			tasks, err := svc.ListTasks(ctx, projectID, req.GetBool("include_archived", false))
			if err != nil {
				return toolResultFromError(err), nil
			}
			views := make([]common.TaskView, 0, len(tasks))
			for _, task := range tasks {
				views = append(views, common.NewTaskView(task))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": views})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerLifecycleTools registers the per-task transition tools.
func registerLifecycleTools(srv *mcpserver.MCPServer, svc common.WorkflowService) {
	type taskTransition struct {
		name        string
		description string
		call        func(ctx context.Context, taskID, actorID string) (domain.Task, error)
	}
	transitions := []taskTransition{
		{"studioflow.start_task", "Pick up one new or assigned task into active work.", svc.StartTask},
		{"studioflow.submit_task", "Submit one task for review, resolving its first approver.", svc.SubmitTask},
		{"studioflow.complete_task", "Complete one approved or assigned task.", svc.CompleteTask},
		{"studioflow.archive_task", "Archive one task and its files.", svc.ArchiveTask},
		{"studioflow.restore_task", "Restore one archived task.", svc.RestoreTask},
	}
	for _, tr := range transitions {
		call := tr.call
		name := tr.name
		srv.AddTool(
			mcp.NewTool(
				name,
				mcp.WithDescription(tr.description),
				mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
				mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				taskID, err := req.RequireString("task_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				actorID, err := req.RequireString("actor_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				task, err := call(ctx, taskID, actorID)
				if err != nil {
					return toolResultFromError(err), nil
				}
				result, err := mcp.NewToolResultJSON(common.NewTaskView(task))
				if err != nil {
					return nil, fmt.Errorf("encode %s result: %w", name, err)
				}
				return result, nil
			},
		)
	}

	srv.AddTool(
		mcp.NewTool(
			"studioflow.approve_step",
			mcp.WithDescription("Approve the pending step on one task as the resolved approver."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			mcp.WithString("comment", mcp.Description("Optional approval comment")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := svc.ApproveStep(ctx, taskID, actorID, req.GetString("comment", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskView(task))
			if err != nil {
				return nil, fmt.Errorf("encode approve_step result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"studioflow.request_revision",
			mcp.WithDescription("Open one revision cycle on a task awaiting review."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			mcp.WithString("message", mcp.Required(), mcp.Description("What needs to change")),
			mcp.WithString("revisor_id", mcp.Description("User the revision is assigned to")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			message, err := req.RequireString("message")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := svc.RequestRevision(ctx, taskID, actorID, message, req.GetString("revisor_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskView(task))
			if err != nil {
				return nil, fmt.Errorf("encode request_revision result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"studioflow.resolve_client_approval",
			mcp.WithDescription("Record the client verdict on one task in client review."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			mcp.WithBoolean("approved", mcp.Required(), mcp.Description("Client verdict")),
			mcp.WithString("comment", mcp.Description("Optional client comment")),
			mcp.WithString("revisor_id", mcp.Description("User the rejection revision is assigned to")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			approved, err := req.RequireBool("approved")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := svc.ResolveClientApproval(ctx, taskID, actorID, approved, req.GetString("comment", ""), req.GetString("revisor_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewTaskView(task))
			if err != nil {
				return nil, fmt.Errorf("encode resolve_client_approval result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"studioflow.archive_social_post",
			mcp.WithDescription("Archive one social post and its files."),
			mcp.WithString("post_id", mcp.Required(), mcp.Description("Social post identifier")),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			postID, err := req.RequireString("post_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			post, err := svc.ArchiveSocialPost(ctx, postID, actorID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(common.NewPostView(post))
			if err != nil {
				return nil, fmt.Errorf("encode archive_social_post result: %w", err)
			}
			return result, nil
		},
	)
}

// registerPlanTools registers production plan generation and lifecycle tools.
func registerPlanTools(srv *mcpserver.MCPServer, svc common.WorkflowService) {
	srv.AddTool(
		mcp.NewTool(
			"studioflow.generate_plan",
			mcp.WithDescription("Generate one production plan, fanning tasks out from calendar items."),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Plan name")),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Project identifier")),
			mcp.WithString("production_date", mcp.Required(), mcp.Description("Production date, RFC 3339 or YYYY-MM-DD")),
			mcp.WithString("calendar_item_ids", mcp.Description("Comma-separated calendar item ids")),
			mcp.WithString("manual_task_ids", mcp.Description("Comma-separated existing task ids")),
			mcp.WithString("team_member_ids", mcp.Required(), mcp.Description("Comma-separated team member user ids")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			projectID, err := req.RequireString("project_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			rawDate, err := req.RequireString("production_date")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			date, err := parsePlanDate(rawDate)
			if err != nil {
				return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
			}
			members, err := req.RequireString("team_member_ids")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			plan, warnings, err := svc.GeneratePlan(ctx, app.GeneratePlanInput{
				Name:            name,
				ProjectID:       projectID,
				ProductionDate:  date,
				CalendarItemIDs: splitIDs(req.GetString("calendar_item_ids", "")),
				ManualTaskIDs:   splitIDs(req.GetString("manual_task_ids", "")),
				TeamMemberIDs:   splitIDs(members),
			}, actorID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"plan":     common.NewPlanView(plan),
				"warnings": common.NewDuplicateWarningViews(warnings),
			})
			if err != nil {
				return nil, fmt.Errorf("encode generate_plan result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"studioflow.edit_plan",
			mcp.WithDescription("Edit one production plan roster or date with a required justification."),
			mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan identifier")),
			mcp.WithString("mode", mcp.Description("Edit mode"), mcp.Enum("adjust", "regenerate")),
			mcp.WithString("justification", mcp.Required(), mcp.Description("Why the plan is changing")),
			mcp.WithString("team_member_ids", mcp.Description("Comma-separated replacement roster")),
			mcp.WithString("production_date", mcp.Description("New production date, RFC 3339 or YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			actorID, err := req.RequireString("actor_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			planID, err := req.RequireString("plan_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			justification, err := req.RequireString("justification")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in := app.EditPlanInput{
				PlanID:        planID,
				Mode:          app.EditMode(req.GetString("mode", "")),
				Justification: justification,
				TeamMemberIDs: splitIDs(req.GetString("team_member_ids", "")),
			}
			if raw := req.GetString("production_date", ""); raw != "" {
				date, err := parsePlanDate(raw)
				if err != nil {
					return mcp.NewToolResultError("invalid_request: " + err.Error()), nil
				}
				in.ProductionDate = &date
			}
			plan, warnings, err := svc.EditPlan(ctx, in, actorID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"plan":     common.NewPlanView(plan),
				"warnings": common.NewDuplicateWarningViews(warnings),
			})
			if err != nil {
				return nil, fmt.Errorf("encode edit_plan result: %w", err)
			}
			return result, nil
		},
	)

	type planTransition struct {
		name        string
		description string
		call        func(ctx context.Context, planID, actorID string) (domain.ProductionPlan, error)
	}
	transitions := []planTransition{
		{"studioflow.archive_plan", "Archive one plan with every task it generated.", svc.ArchivePlan},
		{"studioflow.restore_plan", "Restore one archived plan inside its restore window.", svc.RestorePlan},
	}
	for _, tr := range transitions {
		call := tr.call
		name := tr.name
		srv.AddTool(
			mcp.NewTool(
				name,
				mcp.WithDescription(tr.description),
				mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan identifier")),
				mcp.WithString("actor_id", mcp.Required(), mcp.Description("Acting user identifier")),
			),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				planID, err := req.RequireString("plan_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				actorID, err := req.RequireString("actor_id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				plan, err := call(ctx, planID, actorID)
				if err != nil {
					return toolResultFromError(err), nil
				}
				result, err := mcp.NewToolResultJSON(common.NewPlanView(plan))
				if err != nil {
					return nil, fmt.Errorf("encode %s result: %w", name, err)
				}
				return result, nil
			},
		)
	}
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	if err == nil {
		return mcp.NewToolResultError("unknown error")
	}
	return mcp.NewToolResultError(common.ErrorCode(err) + ": " + err.Error())
}

// splitIDs parses one comma-separated id argument, dropping blanks.
func splitIDs(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePlanDate accepts RFC 3339 timestamps or plain dates.
func parsePlanDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if date, err := time.Parse(time.RFC3339, v); err == nil {
		return date, nil
	}
	date, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid production_date %q", v)
	}
	return date, nil
}
