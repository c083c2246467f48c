package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// TaskComment is a freeform note on a task. Comments are independent of
// lifecycle state and may be added to a DELETED task.
type TaskComment struct {
	ID            uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID        uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	CommentedAt   time.Time `json:"commented_at"`
	CommentedByID uuid.UUID `json:"commented_by" gorm:"type:uuid;not null"`
	Comment       string    `json:"comment" gorm:"type:text;not null"`
}
