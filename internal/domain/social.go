package domain

import (
	"strings"
	"time"
)

// SocialPostStatus represents one social post state.
type SocialPostStatus string

const (
	SocialPostPending   SocialPostStatus = "pending"
	SocialPostScheduled SocialPostStatus = "scheduled"
	SocialPostPosted    SocialPostStatus = "posted"
)

// SocialPost is the downstream artifact created at most once per task on
// terminal approval. It copies platform/title/notes from the task at
// creation time and lives its own lifecycle thereafter.
type SocialPost struct {
	ID              string
	SourceTaskID    string
	ClientID        string
	Title           string
	Caption         string
	Platforms       []string
	SocialManagerID string
	NotesFromTask   string
	Status          SocialPostStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ArchivedAt      *time.Time
}

// NewSocialPostFromTask builds the handover artifact from a task snapshot.
// Caption starts empty; a different role fills it later.
func NewSocialPostFromTask(id string, task Task, now time.Time) (SocialPost, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SocialPost{}, ErrInvalidID
	}
	if task.ID == "" {
		return SocialPost{}, ErrInvalidID
	}
	return SocialPost{
		ID:              id,
		SourceTaskID:    task.ID,
		ClientID:        task.ClientID,
		Title:           task.Title,
		Caption:         "",
		Platforms:       normalizeIDSet(task.Platforms),
		SocialManagerID: task.SocialManagerID,
		NotesFromTask:   task.Notes,
		Status:          SocialPostPending,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}, nil
}

// Archive stamps the post as archived.
func (p *SocialPost) Archive(now time.Time) {
	ts := now.UTC()
	p.ArchivedAt = &ts
	p.UpdatedAt = ts
}

// Restore clears archive stamps.
func (p *SocialPost) Restore(now time.Time) {
	p.ArchivedAt = nil
	p.UpdatedAt = now.UTC()
}
