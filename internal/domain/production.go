package domain

import (
	"strings"
	"time"
)

// RestoreWindow is how long an archived production plan stays restorable.
const RestoreWindow = 30 * 24 * time.Hour

// ConflictOverride is an audited exception allowing a team member with an
// approved leave conflict on the production date to be assigned anyway. The
// override is data retained for audit, not a bypass flag.
type ConflictOverride struct {
	UserID         string
	AuthorizedByID string
	Reason         string
	CreatedAt      time.Time
}

// ProductionPlan groups calendar items and manual tasks with a team roster
// for one shoot date. GeneratedTaskIDs is the authoritative set of tasks the
// plan owns; archiving the plan archives exactly that set.
type ProductionPlan struct {
	ID                string
	Name              string
	ProjectID         string
	ProductionDate    time.Time
	CalendarItemIDs   []string
	ManualTaskIDs     []string
	TeamMemberIDs     []string
	GeneratedTaskIDs  []string
	ConflictOverrides map[string]ConflictOverride
	Status            PlanStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ArchivedAt        *time.Time
	CanRestoreUntil   *time.Time
}

// PlanInput holds input values for constructing a production plan.
type PlanInput struct {
	ID              string
	Name            string
	ProjectID       string
	ProductionDate  time.Time
	CalendarItemIDs []string
	ManualTaskIDs   []string
	TeamMemberIDs   []string
}

// NewProductionPlan constructs a validated draft plan.
func NewProductionPlan(in PlanInput, now time.Time) (ProductionPlan, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	if in.ID == "" || in.ProjectID == "" {
		return ProductionPlan{}, ErrInvalidID
	}
	if in.Name == "" {
		return ProductionPlan{}, ErrInvalidName
	}
	if in.ProductionDate.IsZero() {
		return ProductionPlan{}, ErrInvalidDate
	}
	roster := normalizeIDSet(in.TeamMemberIDs)
	if len(roster) == 0 {
		return ProductionPlan{}, ErrInvalidRoster
	}
	return ProductionPlan{
		ID:                in.ID,
		Name:              in.Name,
		ProjectID:         in.ProjectID,
		ProductionDate:    in.ProductionDate.UTC().Truncate(24 * time.Hour),
		CalendarItemIDs:   normalizeIDSet(in.CalendarItemIDs),
		ManualTaskIDs:     normalizeIDSet(in.ManualTaskIDs),
		TeamMemberIDs:     roster,
		GeneratedTaskIDs:  []string{},
		ConflictOverrides: map[string]ConflictOverride{},
		Status:            PlanStatusDraft,
		CreatedAt:         now.UTC(),
		UpdatedAt:         now.UTC(),
	}, nil
}

// IsArchived reports whether the plan is archived.
func (p *ProductionPlan) IsArchived() bool {
	return p.ArchivedAt != nil
}

// SetStatus moves the plan to next, enforcing the plan transition table.
func (p *ProductionPlan) SetStatus(next PlanStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return ErrInvalidStatus
	}
	p.Status = next
	p.UpdatedAt = now.UTC()
	return nil
}

// ReplaceRoster swaps the team roster for exactly the given members.
func (p *ProductionPlan) ReplaceRoster(userIDs []string, now time.Time) error {
	roster := normalizeIDSet(userIDs)
	if len(roster) == 0 {
		return ErrInvalidRoster
	}
	p.TeamMemberIDs = roster
	p.UpdatedAt = now.UTC()
	return nil
}

// AddOverride records an audited conflict override for one roster member.
func (p *ProductionPlan) AddOverride(userID, authorizedByID, reason string, now time.Time) error {
	userID = strings.TrimSpace(userID)
	authorizedByID = strings.TrimSpace(authorizedByID)
	reason = strings.TrimSpace(reason)
	if userID == "" || authorizedByID == "" {
		return ErrInvalidID
	}
	if reason == "" {
		return ErrInvalidMessage
	}
	if p.ConflictOverrides == nil {
		p.ConflictOverrides = map[string]ConflictOverride{}
	}
	p.ConflictOverrides[userID] = ConflictOverride{
		UserID:         userID,
		AuthorizedByID: authorizedByID,
		Reason:         reason,
		CreatedAt:      now.UTC(),
	}
	p.UpdatedAt = now.UTC()
	return nil
}

// Archive stamps the plan archived and opens the restore window.
func (p *ProductionPlan) Archive(now time.Time) error {
	if err := p.SetStatus(PlanStatusArchived, now); err != nil {
		return err
	}
	ts := now.UTC()
	until := ts.Add(RestoreWindow)
	p.ArchivedAt = &ts
	p.CanRestoreUntil = &until
	return nil
}

// Restore clears archive stamps and returns the plan to draft. The restore
// window check belongs to the app layer, which owns the clock comparison.
func (p *ProductionPlan) Restore(now time.Time) error {
	if err := p.SetStatus(PlanStatusDraft, now); err != nil {
		return err
	}
	p.ArchivedAt = nil
	p.CanRestoreUntil = nil
	return nil
}

// ProductionAssignment summarizes one plan for one roster member. Rows are
// fully replaced on every plan edit instead of patched in place.
type ProductionAssignment struct {
	ID             string
	PlanID         string
	UserID         string
	ProductionDate time.Time
	TaskIDs        []string
	CreatedAt      time.Time
	ArchivedAt     *time.Time
}

// NewProductionAssignment constructs a validated assignment row.
func NewProductionAssignment(id string, plan ProductionPlan, userID string, taskIDs []string, now time.Time) (ProductionAssignment, error) {
	id = strings.TrimSpace(id)
	userID = strings.TrimSpace(userID)
	if id == "" || plan.ID == "" || userID == "" {
		return ProductionAssignment{}, ErrInvalidID
	}
	return ProductionAssignment{
		ID:             id,
		PlanID:         plan.ID,
		UserID:         userID,
		ProductionDate: plan.ProductionDate,
		TaskIDs:        normalizeIDSet(taskIDs),
		CreatedAt:      now.UTC(),
	}, nil
}
