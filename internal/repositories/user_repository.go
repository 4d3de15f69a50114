package repositories

import (
	"context"

	"gallery/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByUsernameOrEmail returns the first user matching either value.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}
