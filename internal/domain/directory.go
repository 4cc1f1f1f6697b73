package domain

import (
	"slices"
	"strings"
	"time"
)

// User is a directory entry the approver resolver searches.
type User struct {
	ID         string
	Name       string
	Email      string
	RoleIDs    []string
	Department string
	CreatedAt  time.Time
}

// HasRole reports whether the user holds the given system role.
func (u *User) HasRole(roleID string) bool {
	return slices.Contains(u.RoleIDs, roleID)
}

// Role is a system role definition.
type Role struct {
	ID   string
	Name string
}

// ProjectMember binds one user to one project under a project-role key.
type ProjectMember struct {
	ID            string
	ProjectID     string
	UserID        string
	RoleInProject string
}

// LeaveStatus represents one leave request state.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is a time-off record; only approved requests flag production
// roster conflicts.
type LeaveRequest struct {
	ID        string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Status    LeaveStatus
	Reason    string
}

// Covers reports whether the approved leave spans the given day.
func (l *LeaveRequest) Covers(day time.Time) bool {
	if l.Status != LeaveApproved {
		return false
	}
	d := day.UTC().Truncate(24 * time.Hour)
	start := l.StartDate.UTC().Truncate(24 * time.Hour)
	end := l.EndDate.UTC().Truncate(24 * time.Hour)
	return !d.Before(start) && !d.After(end)
}

// CalendarItem is the minimal calendar surface the production generator
// consumes; calendar CRUD itself lives outside this engine.
type CalendarItem struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Platforms   []string
	Date        time.Time
	TaskID      string
}

// NewUser constructs a validated directory user.
func NewUser(id, name, email, department string, roleIDs []string, now time.Time) (User, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return User{}, ErrInvalidID
	}
	if name == "" {
		return User{}, ErrInvalidName
	}
	return User{
		ID:         id,
		Name:       name,
		Email:      strings.TrimSpace(email),
		RoleIDs:    normalizeIDSet(roleIDs),
		Department: strings.TrimSpace(department),
		CreatedAt:  now.UTC(),
	}, nil
}
