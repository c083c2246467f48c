package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Status is the lifecycle state of a task. DELETED is terminal; tasks are
// never physically removed, only marked DELETED.
type Status int

const (
	StatusOpen Status = iota + 1
	StatusAssigned
	StatusClosed
	StatusDeleted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusAssigned:
		return "ASSIGNED"
	case StatusClosed:
		return "CLOSED"
	case StatusDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

func (s Status) Valid() bool {
	return s >= StatusOpen && s <= StatusDeleted
}

// Priority is ordinal: lower value means more urgent.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityMinor
)

func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityMinor
}

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Status      Status    `json:"status" gorm:"not null;default:1"`
	Priority    Priority  `json:"priority" gorm:"not null;default:4"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`

	CreatedByID  uuid.UUID  `json:"created_by" gorm:"type:uuid;not null;index"`
	AssignedToID *uuid.UUID `json:"assigned_to" gorm:"type:uuid;index"`
	AssignedByID *uuid.UUID `json:"assigned_by" gorm:"type:uuid"`
	ClosedByID   *uuid.UUID `json:"closed_by" gorm:"type:uuid"`
	DeletedByID  *uuid.UUID `json:"deleted_by" gorm:"type:uuid"`
}
