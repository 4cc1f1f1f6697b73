package domain

import (
	"strings"
	"time"
)

// StepStatus represents one approval step state.
type StepStatus string

const (
	StepWaiting           StepStatus = "waiting"
	StepPending           StepStatus = "pending"
	StepApproved          StepStatus = "approved"
	StepRejected          StepStatus = "rejected"
	StepRevisionRequested StepStatus = "revision_requested"
	StepRevisionSubmitted StepStatus = "revision_submitted"
)

// UnassignedApprover is the sentinel recorded when a step resolved to nobody.
// Writing it is treated as a data error by the app layer, never as a gate to
// silently skip.
const UnassignedApprover = "unassigned"

// ApprovalStep is one instantiated approval gate for one task. Steps are
// created once per task, never deleted, and mutated in place as the chain
// advances.
type ApprovalStep struct {
	ID         string
	TaskID     string
	Level      int
	Name       string
	ApproverID string
	Status     StepStatus
	Comment    string
	CreatedAt  time.Time
	ReviewedAt *time.Time
}

// NewApprovalStep constructs a validated approval step.
func NewApprovalStep(id, taskID string, level int, name, approverID string, status StepStatus, now time.Time) (ApprovalStep, error) {
	id = strings.TrimSpace(id)
	taskID = strings.TrimSpace(taskID)
	approverID = strings.TrimSpace(approverID)
	if id == "" || taskID == "" {
		return ApprovalStep{}, ErrInvalidID
	}
	if level < 0 {
		return ApprovalStep{}, ErrInvalidStepOrder
	}
	if approverID == "" {
		approverID = UnassignedApprover
	}
	if status != StepWaiting && status != StepPending {
		return ApprovalStep{}, ErrInvalidStatus
	}
	return ApprovalStep{
		ID:         id,
		TaskID:     taskID,
		Level:      level,
		Name:       strings.TrimSpace(name),
		ApproverID: approverID,
		Status:     status,
		CreatedAt:  now.UTC(),
	}, nil
}

// Approve marks the step approved and stamps review time.
func (s *ApprovalStep) Approve(now time.Time) {
	ts := now.UTC()
	s.Status = StepApproved
	s.ReviewedAt = &ts
}

// RequestRevision marks the step as the origin of a revision ask.
func (s *ApprovalStep) RequestRevision(comment string, now time.Time) {
	ts := now.UTC()
	s.Status = StepRevisionRequested
	s.Comment = strings.TrimSpace(comment)
	s.ReviewedAt = &ts
}

// Reopen returns the step to pending at its original level, clearing review
// residue so it re-enters the queue exactly where it left off.
func (s *ApprovalStep) Reopen() {
	s.Status = StepPending
	s.Comment = ""
	s.ReviewedAt = nil
}

// ClientApprovalStatus represents one client sign-off state.
type ClientApprovalStatus string

const (
	ClientApprovalPending  ClientApprovalStatus = "pending"
	ClientApprovalApproved ClientApprovalStatus = "approved"
	ClientApprovalRejected ClientApprovalStatus = "rejected"
)

// ClientApproval is the single client sign-off record for one task, created
// lazily when the internal chain completes.
type ClientApproval struct {
	ID           string
	TaskID       string
	ClientID     string
	Status       ClientApprovalStatus
	Comment      string
	ResolvedByID string
	CreatedAt    time.Time
	ReviewedAt   *time.Time
}

// NewClientApproval constructs a pending client approval record.
func NewClientApproval(id, taskID, clientID string, now time.Time) (ClientApproval, error) {
	id = strings.TrimSpace(id)
	taskID = strings.TrimSpace(taskID)
	if id == "" || taskID == "" {
		return ClientApproval{}, ErrInvalidID
	}
	return ClientApproval{
		ID:        id,
		TaskID:    taskID,
		ClientID:  strings.TrimSpace(clientID),
		Status:    ClientApprovalPending,
		CreatedAt: now.UTC(),
	}, nil
}

// Reopen returns a resolved record to pending for a fresh client pass.
func (c *ClientApproval) Reopen() {
	c.Status = ClientApprovalPending
	c.Comment = ""
	c.ResolvedByID = ""
	c.ReviewedAt = nil
}

// Resolve stamps the client's verdict and the member who recorded it.
func (c *ClientApproval) Resolve(status ClientApprovalStatus, resolvedByID, comment string, now time.Time) error {
	if c.Status != ClientApprovalPending {
		return ErrInvalidStatus
	}
	if status != ClientApprovalApproved && status != ClientApprovalRejected {
		return ErrInvalidStatus
	}
	ts := now.UTC()
	c.Status = status
	c.Comment = strings.TrimSpace(comment)
	c.ResolvedByID = strings.TrimSpace(resolvedByID)
	c.ReviewedAt = &ts
	return nil
}
