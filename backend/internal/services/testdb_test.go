package services

import (
	"testing"
	"time"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema.
// A single connection keeps every session on the same in-memory store.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Task{},
		&models.TaskHistory{},
		&models.TaskComment{},
	); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "not-a-real-hash",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func seedTask(t *testing.T, db *gorm.DB, createdBy uuid.UUID) models.Task {
	t.Helper()

	task, err := NewTaskService().CreateTask(db, CreateTaskInput{
		Title:     "test task",
		CreatedBy: createdBy,
	})
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return task
}

func historyCount(t *testing.T, db *gorm.DB, taskID uuid.UUID) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.TaskHistory{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	return count
}
