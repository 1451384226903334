package recoveries

import (
	"context"

	"github.com/openpasswd/openpasswd/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, recovery *models.PasswordRecovery) error
	// FindByToken looks up a recovery record by the SHA-256 hex digest of
	// the presented secret, returning common.ErrorNotFound when absent.
	FindByToken(ctx context.Context, token string) (*models.PasswordRecovery, error)
	Invalidate(ctx context.Context, token string) error
}
