package services

import (
	"errors"
	"fmt"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUsers(db *gorm.DB) ([]models.User, error)
	GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error)
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	result := db.Order("username asc").Find(&users)
	return users, result.Error
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return models.User{}, err
	}
	return user, nil
}
