package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/keylock"
	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LifecycleService is the sole writer of Task.Status. Every transition is
// validated against the current status under an exclusive per-task lock and
// committed together with exactly one TaskHistory record.
//
// Legal transitions:
//
//	assign:   OPEN, ASSIGNED -> ASSIGNED (reassignment allowed)
//	unassign: ASSIGNED       -> OPEN
//	close:    ASSIGNED       -> CLOSED
//	delete:   any but DELETED -> DELETED (terminal)
type LifecycleService interface {
	AssignTask(ctx context.Context, db *gorm.DB, taskID, actorID, assigneeID uuid.UUID) (models.Task, error)
	UnassignTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error)
	CloseTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error)
	DeleteTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error)
	GetHistory(db *gorm.DB, taskID uuid.UUID) ([]models.TaskHistory, error)
}

type LifecycleServiceImpl struct {
	locks    *keylock.KeyLock
	lockWait time.Duration
}

func NewLifecycleService() *LifecycleServiceImpl {
	return &LifecycleServiceImpl{
		locks:    keylock.New(),
		lockWait: 5 * time.Second,
	}
}

// NewLifecycleServiceWithLockWait overrides the bound on how long a
// transition waits for the per-task lock before failing with ErrBusy.
func NewLifecycleServiceWithLockWait(lockWait time.Duration) *LifecycleServiceImpl {
	return &LifecycleServiceImpl{
		locks:    keylock.New(),
		lockWait: lockWait,
	}
}

// transition describes one edge of the state machine. prepare runs inside
// the transaction after the row lock is taken; apply mutates the task's
// denormalized *_by/*_at fields for the new status.
type transition struct {
	name    string
	next    models.Status
	allowed func(models.Status) bool
	prepare func(tx *gorm.DB) error
	apply   func(t *models.Task, actor uuid.UUID, now time.Time)
}

func (s *LifecycleServiceImpl) AssignTask(ctx context.Context, db *gorm.DB, taskID, actorID, assigneeID uuid.UUID) (models.Task, error) {
	if assigneeID == uuid.Nil {
		return models.Task{}, fmt.Errorf("%w: user to assign is required", ErrInvalidArgument)
	}

	return s.run(ctx, db, taskID, actorID, transition{
		name: "assign",
		next: models.StatusAssigned,
		allowed: func(st models.Status) bool {
			return st == models.StatusOpen || st == models.StatusAssigned
		},
		prepare: func(tx *gorm.DB) error {
			var assignee models.User
			if err := tx.First(&assignee, "id = ?", assigneeID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: user %s to assign does not exist", ErrInvalidArgument, assigneeID)
				}
				return err
			}
			return nil
		},
		apply: func(t *models.Task, actor uuid.UUID, now time.Time) {
			t.AssignedToID = &assigneeID
			t.AssignedByID = &actor
			t.AssignedAt = &now
		},
	})
}

func (s *LifecycleServiceImpl) UnassignTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error) {
	return s.run(ctx, db, taskID, actorID, transition{
		name:    "unassign",
		next:    models.StatusOpen,
		allowed: func(st models.Status) bool { return st == models.StatusAssigned },
		apply: func(t *models.Task, actor uuid.UUID, now time.Time) {
			t.AssignedToID = nil
			t.AssignedByID = nil
			t.AssignedAt = nil
		},
	})
}

func (s *LifecycleServiceImpl) CloseTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error) {
	return s.run(ctx, db, taskID, actorID, transition{
		name:    "close",
		next:    models.StatusClosed,
		allowed: func(st models.Status) bool { return st == models.StatusAssigned },
		apply: func(t *models.Task, actor uuid.UUID, now time.Time) {
			t.ClosedByID = &actor
			t.ClosedAt = &now
		},
	})
}

func (s *LifecycleServiceImpl) DeleteTask(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID) (models.Task, error) {
	return s.run(ctx, db, taskID, actorID, transition{
		name:    "delete",
		next:    models.StatusDeleted,
		allowed: func(st models.Status) bool { return st != models.StatusDeleted },
		apply: func(t *models.Task, actor uuid.UUID, now time.Time) {
			t.DeletedByID = &actor
			t.DeletedAt = &now
		},
	})
}

func (s *LifecycleServiceImpl) GetHistory(db *gorm.DB, taskID uuid.UUID) ([]models.TaskHistory, error) {
	if err := taskExists(db, taskID); err != nil {
		return nil, err
	}
	var history []models.TaskHistory
	err := db.Where("task_id = ?", taskID).Order("seq asc").Find(&history).Error
	return history, err
}

// run executes one transition as an indivisible unit: acquire the per-task
// lock, read the row (FOR UPDATE on postgres), validate the precondition,
// mutate the task and append the history record, commit. A precondition
// violation or any store failure rolls back with nothing written.
func (s *LifecycleServiceImpl) run(ctx context.Context, db *gorm.DB, taskID, actorID uuid.UUID, tr transition) (models.Task, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, taskID.String())
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: lock wait on task %s: %v", ErrBusy, taskID, err)
	}
	defer release()

	var task models.Task
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&task, "id = ?", taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
			}
			return err
		}

		if !tr.allowed(task.Status) {
			return &TransitionError{TaskID: taskID, Current: task.Status, Attempted: tr.name}
		}

		if tr.prepare != nil {
			if err := tr.prepare(tx); err != nil {
				return err
			}
		}

		previous := task.Status
		now := time.Now().UTC()
		tr.apply(&task, actorID, now)
		task.Status = tr.next
		task.UpdatedAt = now

		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		// Safe without a max(seq) lock: the keylock plus the row lock
		// guarantee no other transition is writing history for this task.
		var seq int64
		if err := tx.Model(&models.TaskHistory{}).Where("task_id = ?", task.ID).Count(&seq).Error; err != nil {
			return err
		}

		record := models.TaskHistory{
			ID:             uuid.Must(uuid.NewV4()),
			TaskID:         task.ID,
			Seq:            seq + 1,
			ChangedAt:      now,
			ChangedByID:    actorID,
			PreviousStatus: previous,
			NewStatus:      tr.next,
		}
		if tr.next == models.StatusAssigned {
			record.AssignedToID = task.AssignedToID
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return models.Task{}, mapStoreError(err)
	}
	return task, nil
}

func taskExists(db *gorm.DB, taskID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	return nil
}

// mapStoreError keeps taxonomy errors intact and translates driver-level
// lock-wait timeouts into ErrBusy. Anything else surfaces as an internal
// store failure.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrBusy):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" { // lock_not_available
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return err
}
