package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/studioflow/internal/app"
	"github.com/hylla/studioflow/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			role_ids_json TEXT NOT NULL DEFAULT '[]',
			department TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS roles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_members (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			role_in_project TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS leave_requests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS workflow_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			steps_json TEXT NOT NULL DEFAULT '[]',
			requires_client_approval INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			voice_over TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			task_type TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			assignees_json TEXT NOT NULL DEFAULT '[]',
			workflow_template_id TEXT NOT NULL DEFAULT '',
			current_approval_level INTEGER NOT NULL DEFAULT 0,
			client_approval_required INTEGER NOT NULL DEFAULT 0,
			revision_json TEXT,
			revision_history_json TEXT NOT NULL DEFAULT '[]',
			requires_social_post INTEGER NOT NULL DEFAULT 0,
			social_post_id TEXT NOT NULL DEFAULT '',
			platforms_json TEXT NOT NULL DEFAULT '[]',
			social_manager_id TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			production_plan_id TEXT NOT NULL DEFAULT '',
			source_type TEXT NOT NULL DEFAULT '',
			source_calendar_item_id TEXT NOT NULL DEFAULT '',
			source_task_id TEXT NOT NULL DEFAULT '',
			reassign_note TEXT NOT NULL DEFAULT '',
			due_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			completed_at TEXT,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS approval_steps (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			approver_id TEXT NOT NULL,
			status TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			reviewed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS client_approvals (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			resolved_by_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			reviewed_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS social_posts (
			id TEXT PRIMARY KEY,
			source_task_id TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			platforms_json TEXT NOT NULL DEFAULT '[]',
			social_manager_id TEXT NOT NULL DEFAULT '',
			notes_from_task TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS production_plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			project_id TEXT NOT NULL,
			production_date TEXT NOT NULL,
			calendar_item_ids_json TEXT NOT NULL DEFAULT '[]',
			manual_task_ids_json TEXT NOT NULL DEFAULT '[]',
			team_member_ids_json TEXT NOT NULL DEFAULT '[]',
			generated_task_ids_json TEXT NOT NULL DEFAULT '[]',
			overrides_json TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT,
			can_restore_until TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS production_assignments (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			production_date TEXT NOT NULL,
			task_ids_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS calendar_items (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			platforms_json TEXT NOT NULL DEFAULT '[]',
			date TEXT NOT NULL,
			task_id TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			client_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS file_refs (
			id TEXT PRIMARY KEY,
			folder_id TEXT NOT NULL DEFAULT '',
			task_id TEXT NOT NULL DEFAULT '',
			post_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, created_at ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_plan ON tasks(production_plan_id);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_task_level ON approval_steps(task_id, level ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_client_approvals_task ON client_approvals(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_members_project ON project_members(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_leaves_user ON leave_requests(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_plan ON production_assignments(plan_id);`,
		`CREATE INDEX IF NOT EXISTS idx_folders_parent_name ON folders(parent_id, name);`,
		`CREATE INDEX IF NOT EXISTS idx_file_refs_task ON file_refs(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_file_refs_post ON file_refs(post_id);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// execer abstracts *sql.DB and *sql.Tx so every Put shares one statement.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// PutProject writes a project row, insert or replace.
func (r *Repository) PutProject(ctx context.Context, p domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects(id, client_id, name, description, department, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			name = excluded.name,
			description = excluded.description,
			department = excluded.department,
			updated_at = excluded.updated_at,
			archived_at = excluded.archived_at
	`, p.ID, p.ClientID, p.Name, p.Description, p.Department, ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt))
	return err
}

// GetProject returns project.
func (r *Repository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, name, description, department, created_at, updated_at, archived_at
		FROM projects
		WHERE id = ?
	`, id)
	var (
		p          domain.Project
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &p.Department, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archived)
	return p, nil
}

// PutUser writes a user row, insert or replace.
func (r *Repository) PutUser(ctx context.Context, u domain.User) error {
	rolesJSON, err := json.Marshal(u.RoleIDs)
	if err != nil {
		return fmt.Errorf("encode user role_ids: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users(id, name, email, role_ids_json, department, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			role_ids_json = excluded.role_ids_json,
			department = excluded.department
	`, u.ID, u.Name, u.Email, string(rolesJSON), u.Department, ts(u.CreatedAt))
	return err
}

// GetUser returns user.
func (r *Repository) GetUser(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role_ids_json, department, created_at
		FROM users
		WHERE id = ?
	`, id)
	return scanUser(row)
}

// ListUsers lists all directory users.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, role_ids_json, department, created_at
		FROM users
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// PutRole writes a role row, insert or replace.
func (r *Repository) PutRole(ctx context.Context, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles(id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, role.ID, role.Name)
	return err
}

// GetRole returns role.
func (r *Repository) GetRole(ctx context.Context, id string) (domain.Role, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = ?`, id)
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Role{}, app.ErrNotFound
		}
		return domain.Role{}, err
	}
	return role, nil
}

// PutProjectMember writes a membership row, insert or replace.
func (r *Repository) PutProjectMember(ctx context.Context, m domain.ProjectMember) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO project_members(id, project_id, user_id, role_in_project)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			user_id = excluded.user_id,
			role_in_project = excluded.role_in_project
	`, m.ID, m.ProjectID, m.UserID, m.RoleInProject)
	return err
}

// ListProjectMembers lists memberships for one project.
func (r *Repository) ListProjectMembers(ctx context.Context, projectID string) ([]domain.ProjectMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, user_id, role_in_project
		FROM project_members
		WHERE project_id = ?
		ORDER BY id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProjectMember{}
	for rows.Next() {
		var m domain.ProjectMember
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.RoleInProject); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PutLeaveRequest writes a leave row, insert or replace.
func (r *Repository) PutLeaveRequest(ctx context.Context, l domain.LeaveRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leave_requests(id, user_id, start_date, end_date, status, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			reason = excluded.reason
	`, l.ID, l.UserID, ts(l.StartDate), ts(l.EndDate), string(l.Status), l.Reason)
	return err
}

// ListLeaveRequestsForUsers lists leave rows for any of the given users.
func (r *Repository) ListLeaveRequestsForUsers(ctx context.Context, userIDs []string) ([]domain.LeaveRequest, error) {
	if len(userIDs) == 0 {
		return []domain.LeaveRequest{}, nil
	}
	placeholders := strings.Repeat("?, ", len(userIDs)-1) + "?"
	args := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, status, reason
		FROM leave_requests
		WHERE user_id IN (`+placeholders+`)
		ORDER BY start_date ASC, id ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.LeaveRequest{}
	for rows.Next() {
		var (
			l        domain.LeaveRequest
			startRaw string
			endRaw   string
			status   string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &startRaw, &endRaw, &status, &l.Reason); err != nil {
			return nil, err
		}
		l.StartDate = parseTS(startRaw)
		l.EndDate = parseTS(endRaw)
		l.Status = domain.LeaveStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

// PutWorkflowTemplate writes a template row, insert or replace.
func (r *Repository) PutWorkflowTemplate(ctx context.Context, t domain.WorkflowTemplate) error {
	stepsJSON, err := json.Marshal(t.Steps)
	if err != nil {
		return fmt.Errorf("encode template steps: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_templates(id, name, steps_json, requires_client_approval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			steps_json = excluded.steps_json,
			requires_client_approval = excluded.requires_client_approval,
			updated_at = excluded.updated_at
	`, t.ID, t.Name, string(stepsJSON), t.RequiresClientApproval, ts(t.CreatedAt), ts(t.UpdatedAt))
	return err
}

// GetWorkflowTemplate returns workflow template.
func (r *Repository) GetWorkflowTemplate(ctx context.Context, id string) (domain.WorkflowTemplate, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, steps_json, requires_client_approval, created_at, updated_at
		FROM workflow_templates
		WHERE id = ?
	`, id)
	var (
		t          domain.WorkflowTemplate
		stepsRaw   string
		createdRaw string
		updatedRaw string
	)
	if err := row.Scan(&t.ID, &t.Name, &stepsRaw, &t.RequiresClientApproval, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkflowTemplate{}, app.ErrNotFound
		}
		return domain.WorkflowTemplate{}, err
	}
	if err := json.Unmarshal([]byte(stepsRaw), &t.Steps); err != nil {
		return domain.WorkflowTemplate{}, fmt.Errorf("decode template steps_json: %w", err)
	}
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// taskColumns is the canonical select list matched by scanTask.
const taskColumns = `
	id, project_id, client_id, title, description, voice_over, department, task_type,
	priority, status, assignees_json, workflow_template_id, current_approval_level,
	client_approval_required, revision_json, revision_history_json, requires_social_post,
	social_post_id, platforms_json, social_manager_id, notes, production_plan_id,
	source_type, source_calendar_item_id, source_task_id, reassign_note,
	due_at, created_at, updated_at, completed_at, archived_at
`

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasksByProject lists a project's tasks.
func (r *Repository) ListTasksByProject(ctx context.Context, projectID string, includeArchived bool) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	if !includeArchived {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.queryTasks(ctx, query, projectID)
}

// ListTasksByPlan lists every task a production plan generated.
func (r *Repository) ListTasksByPlan(ctx context.Context, planID string) ([]domain.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE production_plan_id = ? ORDER BY created_at ASC, id ASC`, planID)
}

// queryTasks handles query tasks.
func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListApprovalSteps lists a task's approval chain ordered by level.
func (r *Repository) ListApprovalSteps(ctx context.Context, taskID string) ([]domain.ApprovalStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, level, name, approver_id, status, comment, created_at, reviewed_at
		FROM approval_steps
		WHERE task_id = ?
		ORDER BY level ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ApprovalStep{}
	for rows.Next() {
		var (
			step        domain.ApprovalStep
			status      string
			createdRaw  string
			reviewedRaw sql.NullString
		)
		if err := rows.Scan(&step.ID, &step.TaskID, &step.Level, &step.Name, &step.ApproverID, &status, &step.Comment, &createdRaw, &reviewedRaw); err != nil {
			return nil, err
		}
		step.Status = domain.StepStatus(status)
		step.CreatedAt = parseTS(createdRaw)
		step.ReviewedAt = parseNullTS(reviewedRaw)
		out = append(out, step)
	}
	return out, rows.Err()
}

// GetClientApprovalByTask returns the single client sign-off record for a task.
func (r *Repository) GetClientApprovalByTask(ctx context.Context, taskID string) (domain.ClientApproval, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, task_id, client_id, status, comment, resolved_by_id, created_at, reviewed_at
		FROM client_approvals
		WHERE task_id = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, taskID)
	var (
		c           domain.ClientApproval
		status      string
		createdRaw  string
		reviewedRaw sql.NullString
	)
	if err := row.Scan(&c.ID, &c.TaskID, &c.ClientID, &status, &c.Comment, &c.ResolvedByID, &createdRaw, &reviewedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ClientApproval{}, app.ErrNotFound
		}
		return domain.ClientApproval{}, err
	}
	c.Status = domain.ClientApprovalStatus(status)
	c.CreatedAt = parseTS(createdRaw)
	c.ReviewedAt = parseNullTS(reviewedRaw)
	return c, nil
}

// GetSocialPost returns social post.
func (r *Repository) GetSocialPost(ctx context.Context, id string) (domain.SocialPost, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_task_id, client_id, title, caption, platforms_json, social_manager_id,
			notes_from_task, status, created_at, updated_at, archived_at
		FROM social_posts
		WHERE id = ?
	`, id)
	var (
		p            domain.SocialPost
		platformsRaw string
		status       string
		createdRaw   string
		updatedRaw   string
		archivedRaw  sql.NullString
	)
	if err := row.Scan(&p.ID, &p.SourceTaskID, &p.ClientID, &p.Title, &p.Caption, &platformsRaw, &p.SocialManagerID, &p.NotesFromTask, &status, &createdRaw, &updatedRaw, &archivedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SocialPost{}, app.ErrNotFound
		}
		return domain.SocialPost{}, err
	}
	if err := json.Unmarshal([]byte(platformsRaw), &p.Platforms); err != nil {
		return domain.SocialPost{}, fmt.Errorf("decode post platforms_json: %w", err)
	}
	p.Status = domain.SocialPostStatus(status)
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archivedRaw)
	return p, nil
}

// planColumns is the canonical select list matched by scanPlan.
const planColumns = `
	id, name, project_id, production_date, calendar_item_ids_json, manual_task_ids_json,
	team_member_ids_json, generated_task_ids_json, overrides_json, status,
	created_at, updated_at, archived_at, can_restore_until
`

// GetProductionPlan returns production plan.
func (r *Repository) GetProductionPlan(ctx context.Context, id string) (domain.ProductionPlan, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM production_plans WHERE id = ?`, id)
	return scanPlan(row)
}

// ListProductionPlans lists every plan.
func (r *Repository) ListProductionPlans(ctx context.Context) ([]domain.ProductionPlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+planColumns+` FROM production_plans ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProductionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListAssignmentsByPlan lists a plan's assignment rows.
func (r *Repository) ListAssignmentsByPlan(ctx context.Context, planID string) ([]domain.ProductionAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, plan_id, user_id, production_date, task_ids_json, created_at, archived_at
		FROM production_assignments
		WHERE plan_id = ?
		ORDER BY created_at ASC, id ASC
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ProductionAssignment{}
	for rows.Next() {
		var (
			a           domain.ProductionAssignment
			dateRaw     string
			taskIDsRaw  string
			createdRaw  string
			archivedRaw sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.PlanID, &a.UserID, &dateRaw, &taskIDsRaw, &createdRaw, &archivedRaw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(taskIDsRaw), &a.TaskIDs); err != nil {
			return nil, fmt.Errorf("decode assignment task_ids_json: %w", err)
		}
		a.ProductionDate = parseTS(dateRaw)
		a.CreatedAt = parseTS(createdRaw)
		a.ArchivedAt = parseNullTS(archivedRaw)
		out = append(out, a)
	}
	return out, rows.Err()
}

// PutCalendarItem writes a calendar item row, insert or replace.
func (r *Repository) PutCalendarItem(ctx context.Context, item domain.CalendarItem) error {
	return putCalendarItem(ctx, r.db, item)
}

// GetCalendarItem returns calendar item.
func (r *Repository) GetCalendarItem(ctx context.Context, id string) (domain.CalendarItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, title, description, platforms_json, date, task_id
		FROM calendar_items
		WHERE id = ?
	`, id)
	var (
		item         domain.CalendarItem
		platformsRaw string
		dateRaw      string
	)
	if err := row.Scan(&item.ID, &item.ProjectID, &item.Title, &item.Description, &platformsRaw, &dateRaw, &item.TaskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CalendarItem{}, app.ErrNotFound
		}
		return domain.CalendarItem{}, err
	}
	if err := json.Unmarshal([]byte(platformsRaw), &item.Platforms); err != nil {
		return domain.CalendarItem{}, fmt.Errorf("decode calendar item platforms_json: %w", err)
	}
	item.Date = parseTS(dateRaw)
	return item, nil
}

// FindFolder returns the folder with the given parent and name.
func (r *Repository) FindFolder(ctx context.Context, parentID, name string) (domain.Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, parent_id, project_id, client_id, created_at
		FROM folders
		WHERE parent_id = ? AND name = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, parentID, name)
	var (
		folder     domain.Folder
		createdRaw string
	)
	if err := row.Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.ProjectID, &folder.ClientID, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Folder{}, app.ErrNotFound
		}
		return domain.Folder{}, err
	}
	folder.CreatedAt = parseTS(createdRaw)
	return folder, nil
}

// PutFileRef writes a file ref row, insert or replace.
func (r *Repository) PutFileRef(ctx context.Context, ref domain.FileRef) error {
	return putFileRef(ctx, r.db, ref)
}

// GetFileRef returns file ref.
func (r *Repository) GetFileRef(ctx context.Context, id string) (domain.FileRef, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, folder_id, task_id, post_id, name, path, created_at
		FROM file_refs
		WHERE id = ?
	`, id)
	ref, err := scanFileRef(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FileRef{}, app.ErrNotFound
		}
		return domain.FileRef{}, err
	}
	return ref, nil
}

// DeleteFileRef deletes a file ref row.
func (r *Repository) DeleteFileRef(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_refs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ListFileRefsByTask lists file refs recorded against a task.
func (r *Repository) ListFileRefsByTask(ctx context.Context, taskID string) ([]domain.FileRef, error) {
	return r.queryFileRefs(ctx, `
		SELECT id, folder_id, task_id, post_id, name, path, created_at
		FROM file_refs
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`, taskID)
}

// ListFileRefsByPost lists file refs recorded against a social post.
func (r *Repository) ListFileRefsByPost(ctx context.Context, postID string) ([]domain.FileRef, error) {
	return r.queryFileRefs(ctx, `
		SELECT id, folder_id, task_id, post_id, name, path, created_at
		FROM file_refs
		WHERE post_id = ?
		ORDER BY created_at ASC, id ASC
	`, postID)
}

// queryFileRefs handles query file refs.
func (r *Repository) queryFileRefs(ctx context.Context, query string, args ...any) ([]domain.FileRef, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FileRef{}
	for rows.Next() {
		ref, err := scanFileRef(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// Batch runs fn's writes inside one transaction.
func (r *Repository) Batch(ctx context.Context, fn func(tx app.BatchTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&batchTx{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// batchTx implements app.BatchTx over one sql transaction.
type batchTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (b *batchTx) PutTask(t domain.Task) error {
	return putTask(b.ctx, b.tx, t)
}

func (b *batchTx) PutApprovalStep(step domain.ApprovalStep) error {
	_, err := b.tx.ExecContext(b.ctx, `
		INSERT INTO approval_steps(id, task_id, level, name, approver_id, status, comment, created_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			level = excluded.level,
			name = excluded.name,
			approver_id = excluded.approver_id,
			status = excluded.status,
			comment = excluded.comment,
			reviewed_at = excluded.reviewed_at
	`, step.ID, step.TaskID, step.Level, step.Name, step.ApproverID, string(step.Status), step.Comment, ts(step.CreatedAt), nullableTS(step.ReviewedAt))
	return err
}

func (b *batchTx) PutClientApproval(c domain.ClientApproval) error {
	_, err := b.tx.ExecContext(b.ctx, `
		INSERT INTO client_approvals(id, task_id, client_id, status, comment, resolved_by_id, created_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			comment = excluded.comment,
			resolved_by_id = excluded.resolved_by_id,
			reviewed_at = excluded.reviewed_at
	`, c.ID, c.TaskID, c.ClientID, string(c.Status), c.Comment, c.ResolvedByID, ts(c.CreatedAt), nullableTS(c.ReviewedAt))
	return err
}

func (b *batchTx) PutSocialPost(p domain.SocialPost) error {
	platformsJSON, err := json.Marshal(p.Platforms)
	if err != nil {
		return fmt.Errorf("encode post platforms: %w", err)
	}
	_, err = b.tx.ExecContext(b.ctx, `
		INSERT INTO social_posts(
			id, source_task_id, client_id, title, caption, platforms_json, social_manager_id,
			notes_from_task, status, created_at, updated_at, archived_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			caption = excluded.caption,
			platforms_json = excluded.platforms_json,
			social_manager_id = excluded.social_manager_id,
			notes_from_task = excluded.notes_from_task,
			status = excluded.status,
			updated_at = excluded.updated_at,
			archived_at = excluded.archived_at
	`, p.ID, p.SourceTaskID, p.ClientID, p.Title, p.Caption, string(platformsJSON), p.SocialManagerID, p.NotesFromTask, string(p.Status), ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt))
	return err
}

func (b *batchTx) PutProductionPlan(p domain.ProductionPlan) error {
	calendarJSON, err := json.Marshal(p.CalendarItemIDs)
	if err != nil {
		return fmt.Errorf("encode plan calendar_item_ids: %w", err)
	}
	manualJSON, err := json.Marshal(p.ManualTaskIDs)
	if err != nil {
		return fmt.Errorf("encode plan manual_task_ids: %w", err)
	}
	teamJSON, err := json.Marshal(p.TeamMemberIDs)
	if err != nil {
		return fmt.Errorf("encode plan team_member_ids: %w", err)
	}
	generatedJSON, err := json.Marshal(p.GeneratedTaskIDs)
	if err != nil {
		return fmt.Errorf("encode plan generated_task_ids: %w", err)
	}
	overridesJSON, err := json.Marshal(p.ConflictOverrides)
	if err != nil {
		return fmt.Errorf("encode plan overrides: %w", err)
	}
	_, err = b.tx.ExecContext(b.ctx, `
		INSERT INTO production_plans(
			id, name, project_id, production_date, calendar_item_ids_json, manual_task_ids_json,
			team_member_ids_json, generated_task_ids_json, overrides_json, status,
			created_at, updated_at, archived_at, can_restore_until
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			production_date = excluded.production_date,
			calendar_item_ids_json = excluded.calendar_item_ids_json,
			manual_task_ids_json = excluded.manual_task_ids_json,
			team_member_ids_json = excluded.team_member_ids_json,
			generated_task_ids_json = excluded.generated_task_ids_json,
			overrides_json = excluded.overrides_json,
			status = excluded.status,
			updated_at = excluded.updated_at,
			archived_at = excluded.archived_at,
			can_restore_until = excluded.can_restore_until
	`, p.ID, p.Name, p.ProjectID, ts(p.ProductionDate), string(calendarJSON), string(manualJSON), string(teamJSON), string(generatedJSON), string(overridesJSON), string(p.Status), ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt), nullableTS(p.CanRestoreUntil))
	return err
}

func (b *batchTx) PutAssignment(a domain.ProductionAssignment) error {
	taskIDsJSON, err := json.Marshal(a.TaskIDs)
	if err != nil {
		return fmt.Errorf("encode assignment task_ids: %w", err)
	}
	_, err = b.tx.ExecContext(b.ctx, `
		INSERT INTO production_assignments(id, plan_id, user_id, production_date, task_ids_json, created_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			production_date = excluded.production_date,
			task_ids_json = excluded.task_ids_json,
			archived_at = excluded.archived_at
	`, a.ID, a.PlanID, a.UserID, ts(a.ProductionDate), string(taskIDsJSON), ts(a.CreatedAt), nullableTS(a.ArchivedAt))
	return err
}

func (b *batchTx) DeleteAssignmentsByPlan(planID string) error {
	_, err := b.tx.ExecContext(b.ctx, `DELETE FROM production_assignments WHERE plan_id = ?`, planID)
	return err
}

func (b *batchTx) PutCalendarItem(item domain.CalendarItem) error {
	return putCalendarItem(b.ctx, b.tx, item)
}

func (b *batchTx) PutFolder(folder domain.Folder) error {
	_, err := b.tx.ExecContext(b.ctx, `
		INSERT INTO folders(id, name, parent_id, project_id, client_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			parent_id = excluded.parent_id
	`, folder.ID, folder.Name, folder.ParentID, folder.ProjectID, folder.ClientID, ts(folder.CreatedAt))
	return err
}

func (b *batchTx) PutFileRef(ref domain.FileRef) error {
	return putFileRef(b.ctx, b.tx, ref)
}

// putTask is shared by the repository and the batch transaction.
func putTask(ctx context.Context, ex execer, t domain.Task) error {
	assigneesJSON, err := json.Marshal(t.AssigneeIDs)
	if err != nil {
		return fmt.Errorf("encode task assignees: %w", err)
	}
	platformsJSON, err := json.Marshal(t.Platforms)
	if err != nil {
		return fmt.Errorf("encode task platforms: %w", err)
	}
	historyJSON, err := json.Marshal(t.RevisionHistory)
	if err != nil {
		return fmt.Errorf("encode task revision history: %w", err)
	}
	var revisionJSON any
	if t.Revision != nil {
		raw, err := json.Marshal(t.Revision)
		if err != nil {
			return fmt.Errorf("encode task revision: %w", err)
		}
		revisionJSON = string(raw)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO tasks(
			id, project_id, client_id, title, description, voice_over, department, task_type,
			priority, status, assignees_json, workflow_template_id, current_approval_level,
			client_approval_required, revision_json, revision_history_json, requires_social_post,
			social_post_id, platforms_json, social_manager_id, notes, production_plan_id,
			source_type, source_calendar_item_id, source_task_id, reassign_note,
			due_at, created_at, updated_at, completed_at, archived_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			voice_over = excluded.voice_over,
			department = excluded.department,
			task_type = excluded.task_type,
			priority = excluded.priority,
			status = excluded.status,
			assignees_json = excluded.assignees_json,
			current_approval_level = excluded.current_approval_level,
			client_approval_required = excluded.client_approval_required,
			revision_json = excluded.revision_json,
			revision_history_json = excluded.revision_history_json,
			requires_social_post = excluded.requires_social_post,
			social_post_id = excluded.social_post_id,
			platforms_json = excluded.platforms_json,
			social_manager_id = excluded.social_manager_id,
			notes = excluded.notes,
			production_plan_id = excluded.production_plan_id,
			reassign_note = excluded.reassign_note,
			due_at = excluded.due_at,
			updated_at = excluded.updated_at,
			completed_at = excluded.completed_at,
			archived_at = excluded.archived_at
	`,
		t.ID,
		t.ProjectID,
		t.ClientID,
		t.Title,
		t.Description,
		t.VoiceOver,
		t.Department,
		t.TaskType,
		string(t.Priority),
		string(t.Status),
		string(assigneesJSON),
		t.WorkflowTemplateID,
		t.CurrentApprovalLevel,
		t.ClientApprovalRequired,
		revisionJSON,
		string(historyJSON),
		t.RequiresSocialPost,
		t.SocialPostID,
		string(platformsJSON),
		t.SocialManagerID,
		t.Notes,
		t.ProductionPlanID,
		string(t.SourceType),
		t.SourceCalendarItemID,
		t.SourceTaskID,
		t.ReassignNote,
		nullableTS(t.DueAt),
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
		nullableTS(t.CompletedAt),
		nullableTS(t.ArchivedAt),
	)
	return err
}

// putCalendarItem is shared by the repository and the batch transaction.
func putCalendarItem(ctx context.Context, ex execer, item domain.CalendarItem) error {
	platformsJSON, err := json.Marshal(item.Platforms)
	if err != nil {
		return fmt.Errorf("encode calendar item platforms: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO calendar_items(id, project_id, title, description, platforms_json, date, task_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			platforms_json = excluded.platforms_json,
			date = excluded.date,
			task_id = excluded.task_id
	`, item.ID, item.ProjectID, item.Title, item.Description, string(platformsJSON), ts(item.Date), item.TaskID)
	return err
}

// putFileRef is shared by the repository and the batch transaction.
func putFileRef(ctx context.Context, ex execer, ref domain.FileRef) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO file_refs(id, folder_id, task_id, post_id, name, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			folder_id = excluded.folder_id,
			name = excluded.name,
			path = excluded.path
	`, ref.ID, ref.FolderID, ref.TaskID, ref.PostID, ref.Name, ref.Path, ts(ref.CreatedAt))
	return err
}

// scanUser handles scan user.
func scanUser(s scanner) (domain.User, error) {
	var (
		u          domain.User
		rolesRaw   string
		createdRaw string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &rolesRaw, &u.Department, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, app.ErrNotFound
		}
		return domain.User{}, err
	}
	if err := json.Unmarshal([]byte(rolesRaw), &u.RoleIDs); err != nil {
		return domain.User{}, fmt.Errorf("decode user role_ids_json: %w", err)
	}
	u.CreatedAt = parseTS(createdRaw)
	return u, nil
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		priority     string
		status       string
		assigneesRaw string
		revisionRaw  sql.NullString
		historyRaw   string
		platformsRaw string
		sourceType   string
		dueRaw       sql.NullString
		createdRaw   string
		updatedRaw   string
		completedRaw sql.NullString
		archivedRaw  sql.NullString
	)
	if err := s.Scan(
		&t.ID,
		&t.ProjectID,
		&t.ClientID,
		&t.Title,
		&t.Description,
		&t.VoiceOver,
		&t.Department,
		&t.TaskType,
		&priority,
		&status,
		&assigneesRaw,
		&t.WorkflowTemplateID,
		&t.CurrentApprovalLevel,
		&t.ClientApprovalRequired,
		&revisionRaw,
		&historyRaw,
		&t.RequiresSocialPost,
		&t.SocialPostID,
		&platformsRaw,
		&t.SocialManagerID,
		&t.Notes,
		&t.ProductionPlanID,
		&sourceType,
		&t.SourceCalendarItemID,
		&t.SourceTaskID,
		&t.ReassignNote,
		&dueRaw,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
		&archivedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.SourceType = domain.SourceType(sourceType)
	if err := json.Unmarshal([]byte(assigneesRaw), &t.AssigneeIDs); err != nil {
		return domain.Task{}, fmt.Errorf("decode task assignees_json: %w", err)
	}
	if err := json.Unmarshal([]byte(historyRaw), &t.RevisionHistory); err != nil {
		return domain.Task{}, fmt.Errorf("decode task revision_history_json: %w", err)
	}
	if revisionRaw.Valid && strings.TrimSpace(revisionRaw.String) != "" {
		var revision domain.RevisionContext
		if err := json.Unmarshal([]byte(revisionRaw.String), &revision); err != nil {
			return domain.Task{}, fmt.Errorf("decode task revision_json: %w", err)
		}
		t.Revision = &revision
	}
	if err := json.Unmarshal([]byte(platformsRaw), &t.Platforms); err != nil {
		return domain.Task{}, fmt.Errorf("decode task platforms_json: %w", err)
	}
	t.DueAt = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	t.CompletedAt = parseNullTS(completedRaw)
	t.ArchivedAt = parseNullTS(archivedRaw)
	return t, nil
}

// scanPlan handles scan plan.
func scanPlan(s scanner) (domain.ProductionPlan, error) {
	var (
		p             domain.ProductionPlan
		dateRaw       string
		calendarRaw   string
		manualRaw     string
		teamRaw       string
		generatedRaw  string
		overridesRaw  string
		status        string
		createdRaw    string
		updatedRaw    string
		archivedRaw   sql.NullString
		restoreRaw    sql.NullString
	)
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&p.ProjectID,
		&dateRaw,
		&calendarRaw,
		&manualRaw,
		&teamRaw,
		&generatedRaw,
		&overridesRaw,
		&status,
		&createdRaw,
		&updatedRaw,
		&archivedRaw,
		&restoreRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductionPlan{}, app.ErrNotFound
		}
		return domain.ProductionPlan{}, err
	}
	if err := json.Unmarshal([]byte(calendarRaw), &p.CalendarItemIDs); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("decode plan calendar_item_ids_json: %w", err)
	}
	if err := json.Unmarshal([]byte(manualRaw), &p.ManualTaskIDs); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("decode plan manual_task_ids_json: %w", err)
	}
	if err := json.Unmarshal([]byte(teamRaw), &p.TeamMemberIDs); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("decode plan team_member_ids_json: %w", err)
	}
	if err := json.Unmarshal([]byte(generatedRaw), &p.GeneratedTaskIDs); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("decode plan generated_task_ids_json: %w", err)
	}
	if strings.TrimSpace(overridesRaw) == "" {
		overridesRaw = "{}"
	}
	if err := json.Unmarshal([]byte(overridesRaw), &p.ConflictOverrides); err != nil {
		return domain.ProductionPlan{}, fmt.Errorf("decode plan overrides_json: %w", err)
	}
	p.Status = domain.PlanStatus(status)
	p.ProductionDate = parseTS(dateRaw)
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archivedRaw)
	p.CanRestoreUntil = parseNullTS(restoreRaw)
	return p, nil
}

// scanFileRef handles scan file ref.
func scanFileRef(s scanner) (domain.FileRef, error) {
	var (
		ref        domain.FileRef
		createdRaw string
	)
	if err := s.Scan(&ref.ID, &ref.FolderID, &ref.TaskID, &ref.PostID, &ref.Name, &ref.Path, &createdRaw); err != nil {
		return domain.FileRef{}, err
	}
	ref.CreatedAt = parseTS(createdRaw)
	return ref, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	parsed := parseTS(v.String)
	return &parsed
}
