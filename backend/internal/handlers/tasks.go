package handlers

import (
	"errors"
	"net/http"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	lifecycle   services.LifecycleService
	comments    services.CommentService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, lifecycle services.LifecycleService, comments services.CommentService) *TaskHandler {
	return &TaskHandler{
		db:          db,
		taskService: taskService,
		lifecycle:   lifecycle,
		comments:    comments,
	}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var taskInput struct {
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Priority    *models.Priority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(h.db, services.CreateTaskInput{
		Title:       taskInput.Title,
		Description: taskInput.Description,
		Priority:    taskInput.Priority,
		CreatedBy:   actor,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}

	var taskInput struct {
		Title       *string          `json:"title"`
		Description *string          `json:"description"`
		Priority    *models.Priority `json:"priority"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.UpdateTask(h.db, id, services.UpdateTaskInput{
		Title:       taskInput.Title,
		Description: taskInput.Description,
		Priority:    taskInput.Priority,
	})
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	task, err := h.taskService.GetTaskByID(h.db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	sortBy := c.DefaultQuery("sortBy", "created_at")
	order := c.DefaultQuery("order", "desc")
	page := c.DefaultQuery("page", "1")
	pageSize := c.DefaultQuery("pageSize", "10")

	tasks, total, err := h.taskService.GetTasksPaginated(h.db, sortBy, order, page, pageSize)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": total,
	})
}

func (h *TaskHandler) GetTasksByUser(c *gin.Context) {
	userID := uuid.FromStringOrNil(c.Param("user_id"))
	if userID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	tasks, err := h.taskService.GetTasksByUser(h.db, userID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// AssignTask moves a task to ASSIGNED. Reassigning an already assigned
// task to a different user is permitted; closed and deleted tasks are not
// assignable.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		AssignedTo string `json:"assigned_to"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.AssignedTo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user to assign is required"})
		return
	}
	assignee := uuid.FromStringOrNil(input.AssignedTo)
	if assignee == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id to assign"})
		return
	}

	task, err := h.lifecycle.AssignTask(c.Request.Context(), h.db, id, actor, assignee)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	h.invalidate(id)
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UnassignTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	task, err := h.lifecycle.UnassignTask(c.Request.Context(), h.db, id, actor)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	h.invalidate(id)
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CloseTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	task, err := h.lifecycle.CloseTask(c.Request.Context(), h.db, id, actor)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	h.invalidate(id)
	c.JSON(http.StatusOK, task)
}

// DeleteTask marks the task DELETED. The row is kept; DELETED is a
// terminal status, not removal.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	task, err := h.lifecycle.DeleteTask(c.Request.Context(), h.db, id, actor)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	h.invalidate(id)
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.comments.AddComment(h.db, id, actor, input.Comment)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *TaskHandler) GetComments(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	comments, err := h.comments.GetComments(h.db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *TaskHandler) GetHistory(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	history, err := h.lifecycle.GetHistory(h.db, id)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *TaskHandler) invalidate(id uuid.UUID) {
	if cached, ok := h.taskService.(*services.CachedTaskService); ok {
		cached.InvalidateTask(id)
	}
}

func taskID(c *gin.Context) (uuid.UUID, bool) {
	id := uuid.FromStringOrNil(c.Param("id"))
	if id == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return uuid.Nil, false
	}
	return id, true
}

func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user identity not found in context"})
		return uuid.Nil, false
	}
	str, _ := raw.(string)
	actor := uuid.FromStringOrNil(str)
	if actor == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return uuid.Nil, false
	}
	return actor, true
}

// handleTaskError maps the services error taxonomy onto HTTP statuses.
// Client faults (bad input, illegal transitions) stay distinguishable from
// store failures.
func handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBusy):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process task request"})
	}
}
