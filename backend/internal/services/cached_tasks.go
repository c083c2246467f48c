package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/cache"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const taskCacheTTL = 5 * time.Minute

// CachedTaskService decorates a TaskService with a read cache for single
// task lookups. Mutations write through and invalidate; cache failures are
// logged and never fail the request.
type CachedTaskService struct {
	inner TaskService
	cache cache.Cache
}

func NewCachedTaskService(inner TaskService, c cache.Cache) *CachedTaskService {
	return &CachedTaskService{inner: inner, cache: c}
}

func taskCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, input CreateTaskInput) (models.Task, error) {
	return s.inner.CreateTask(db, input)
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, id uuid.UUID) (models.Task, error) {
	key := taskCacheKey(id)
	if data, ok := s.cache.Get(key); ok {
		var task models.Task
		if err := json.Unmarshal(data, &task); err == nil {
			return task, nil
		}
		// Corrupt entry, drop it and fall through to the store.
		_ = s.cache.Delete(key)
	}

	task, err := s.inner.GetTaskByID(db, id)
	if err != nil {
		return models.Task{}, err
	}

	if data, err := json.Marshal(task); err == nil {
		if err := s.cache.Set(key, data, taskCacheTTL); err != nil {
			log.Printf("cache set failed for %s: %v", key, err)
		}
	}
	return task, nil
}

func (s *CachedTaskService) GetTasksPaginated(db *gorm.DB, sortBy, order, page, pageSize string) ([]models.Task, int64, error) {
	return s.inner.GetTasksPaginated(db, sortBy, order, page, pageSize)
}

func (s *CachedTaskService) GetTasksByUser(db *gorm.DB, userID uuid.UUID) ([]models.Task, error) {
	return s.inner.GetTasksByUser(db, userID)
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, id uuid.UUID, input UpdateTaskInput) (models.Task, error) {
	task, err := s.inner.UpdateTask(db, id, input)
	if err != nil {
		return models.Task{}, err
	}
	s.InvalidateTask(id)
	return task, nil
}

// InvalidateTask drops the cached representation after any mutation,
// including lifecycle transitions performed outside this service.
func (s *CachedTaskService) InvalidateTask(id uuid.UUID) {
	if err := s.cache.Delete(taskCacheKey(id)); err != nil {
		log.Printf("cache invalidation failed for task %s: %v", id, err)
	}
}
