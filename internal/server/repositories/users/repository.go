package users

import (
	"context"

	"github.com/openpasswd/openpasswd/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	UpdateFailAttempts(ctx context.Context, id int64, attempts int32) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
