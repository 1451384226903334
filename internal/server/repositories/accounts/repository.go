package accounts

import (
	"context"

	"github.com/openpasswd/openpasswd/internal/server/models"
)

type Repository interface {
	CreateGroup(ctx context.Context, group *models.AccountGroup) (*models.AccountGroup, error)
	GetGroup(ctx context.Context, groupID, userID int64) (*models.AccountGroup, error)
	ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error)

	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)
	GetAccount(ctx context.Context, accountID, userID int64) (*models.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]*models.Account, error)
	ListAccountsByGroup(ctx context.Context, userID, groupID int64) ([]*models.Account, error)

	CreatePassword(ctx context.Context, password *models.AccountPassword) (*models.AccountPassword, error)
	// GetLatestPassword returns the most recently created credential row
	// for the account, or common.ErrorNotFound when none exists yet.
	GetLatestPassword(ctx context.Context, accountID int64) (*models.AccountPassword, error)
}
