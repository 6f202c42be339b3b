package ports

import (
	"context"

	"bhss/domain/core"
	"bhss/models"
)

// UserRepository defines the interface for user account persistence
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID core.ID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID core.ID) error
}
