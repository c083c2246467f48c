package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskService covers task creation, reads and plain field edits. Field
// edits (title, description, priority) are permitted regardless of status,
// bypass the lifecycle engine and write no history.
type TaskService interface {
	CreateTask(db *gorm.DB, input CreateTaskInput) (models.Task, error)
	GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error)
	GetTasksPaginated(db *gorm.DB, sortBy, order, page, pageSize string) ([]models.Task, int64, error)
	GetTasksByUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error)
	UpdateTask(db *gorm.DB, id uuid.UUID, input UpdateTaskInput) (models.Task, error)
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    *models.Priority
	CreatedBy   uuid.UUID
}

// UpdateTaskInput carries optional field edits; nil means keep the current
// value.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.Priority
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, input CreateTaskInput) (models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}

	priority := models.PriorityMinor
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return models.Task{}, fmt.Errorf("%w: unknown priority %d", ErrInvalidArgument, *input.Priority)
		}
		priority = *input.Priority
	}

	now := time.Now().UTC()
	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       input.Title,
		Description: input.Description,
		Status:      models.StatusOpen,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedByID: input.CreatedBy,
	}
	if err := db.Create(&task).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) GetTasksPaginated(db *gorm.DB, sortBy, order, page, pageSize string) ([]models.Task, int64, error) {
	var tasks []models.Task
	var total int64

	allowedSort := map[string]bool{"created_at": true, "updated_at": true, "title": true, "priority": true, "status": true}
	if !allowedSort[sortBy] {
		sortBy = "created_at"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	p := 1
	ps := 10
	if v, err := strconv.Atoi(page); err == nil && v > 0 {
		p = v
	}
	if v, err := strconv.Atoi(pageSize); err == nil && v > 0 && v <= 100 {
		ps = v
	}
	offset := (p - 1) * ps

	if err := db.Model(&models.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	result := db.Order(sortBy + " " + order).Offset(offset).Limit(ps).Find(&tasks)
	return tasks, total, result.Error
}

func (s *TaskServiceImpl) GetTasksByUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	result := db.Where("assigned_to_id = ?", userID).Find(&tasks)
	return tasks, result.Error
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uuid.UUID, input UpdateTaskInput) (models.Task, error) {
	task, err := s.GetTaskByID(db, id)
	if err != nil {
		return models.Task{}, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return models.Task{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return models.Task{}, fmt.Errorf("%w: unknown priority %d", ErrInvalidArgument, *input.Priority)
		}
		task.Priority = *input.Priority
	}
	task.UpdatedAt = time.Now().UTC()

	if err := db.Save(&task).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}
