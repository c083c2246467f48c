package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// TaskHistory is an immutable audit record. Exactly one row is written per
// successful status transition, in the same transaction as the task update.
// Rows are never updated or deleted. Seq numbers the records per task from 1
// so the trail stays in transition order even when timestamps collide.
type TaskHistory struct {
	ID             uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID         uuid.UUID  `json:"task_id" gorm:"type:uuid;not null;index"`
	Seq            int64      `json:"seq" gorm:"not null"`
	ChangedAt      time.Time  `json:"changed_at"`
	ChangedByID    uuid.UUID  `json:"changed_by" gorm:"type:uuid;not null"`
	AssignedToID   *uuid.UUID `json:"assigned_to" gorm:"type:uuid"`
	PreviousStatus Status     `json:"previous_status" gorm:"not null"`
	NewStatus      Status     `json:"new_status" gorm:"not null"`
}
