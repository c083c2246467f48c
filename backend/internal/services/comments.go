package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CommentService appends and lists comments on a task. Comments do not
// interact with the lifecycle state machine; a DELETED task still accepts
// them.
type CommentService interface {
	AddComment(db *gorm.DB, taskID, authorID uuid.UUID, text string) (models.TaskComment, error)
	GetComments(db *gorm.DB, taskID uuid.UUID) ([]models.TaskComment, error)
}

type CommentServiceImpl struct{}

func NewCommentService() *CommentServiceImpl {
	return &CommentServiceImpl{}
}

func (s *CommentServiceImpl) AddComment(db *gorm.DB, taskID, authorID uuid.UUID, text string) (models.TaskComment, error) {
	if strings.TrimSpace(text) == "" {
		return models.TaskComment{}, fmt.Errorf("%w: comment text is required", ErrInvalidArgument)
	}
	if err := taskExists(db, taskID); err != nil {
		return models.TaskComment{}, err
	}

	comment := models.TaskComment{
		ID:            uuid.Must(uuid.NewV4()),
		TaskID:        taskID,
		CommentedAt:   time.Now().UTC(),
		CommentedByID: authorID,
		Comment:       text,
	}
	if err := db.Create(&comment).Error; err != nil {
		return models.TaskComment{}, err
	}
	return comment, nil
}

func (s *CommentServiceImpl) GetComments(db *gorm.DB, taskID uuid.UUID) ([]models.TaskComment, error) {
	if err := taskExists(db, taskID); err != nil {
		return nil, err
	}
	var comments []models.TaskComment
	// id breaks ties between comments sharing a timestamp so the listing is
	// stable across reads.
	err := db.Where("task_id = ?", taskID).Order("commented_at asc, id asc").Find(&comments).Error
	return comments, err
}
