package domain

import (
	"strings"
	"time"
)

// Project represents one client engagement grouping tasks and members.
type Project struct {
	ID          string
	ClientID    string
	Name        string
	Description string
	Department  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// NewProject constructs a new value for this package.
func NewProject(id, clientID, name, description string, now time.Time) (Project, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Project{}, ErrInvalidID
	}
	if name == "" {
		return Project{}, ErrInvalidName
	}
	return Project{
		ID:          id,
		ClientID:    strings.TrimSpace(clientID),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Archive stamps the project archived.
func (p *Project) Archive(now time.Time) {
	ts := now.UTC()
	p.ArchivedAt = &ts
	p.UpdatedAt = ts
}

// Client is the agency customer an engagement belongs to.
type Client struct {
	ID        string
	Name      string
	Company   string
	CreatedAt time.Time
}

// Folder is one node in the external file store's folder tree, used by the
// archive subsystem's lookup-or-create relocation flow.
type Folder struct {
	ID        string
	Name      string
	ParentID  string
	ProjectID string
	ClientID  string
	CreatedAt time.Time
}

// FileRef is one stored file associated with a task or post.
type FileRef struct {
	ID        string
	FolderID  string
	TaskID    string
	PostID    string
	Name      string
	Path      string
	CreatedAt time.Time
}
