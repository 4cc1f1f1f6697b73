package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidStepKind    = errors.New("invalid workflow step kind")
	ErrInvalidStepOrder   = errors.New("invalid workflow step order")
	ErrInvalidAssignee    = errors.New("invalid assignee")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidRoster      = errors.New("invalid roster")
	ErrArchivedImmutable  = errors.New("archived entity is immutable")
	ErrNoActiveRevision   = errors.New("no active revision context")
	ErrRevisionActive     = errors.New("revision context already active")
	ErrSocialPostExists   = errors.New("social post already linked")
)
