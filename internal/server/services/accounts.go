package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/cryptox"
	"github.com/openpasswd/openpasswd/internal/dbx"
	"github.com/openpasswd/openpasswd/internal/logging"
	"github.com/openpasswd/openpasswd/internal/server/models"
	"github.com/openpasswd/openpasswd/internal/server/repositories/repomanager"
)

// AccountParams carries one account registration. The plaintext password is
// encrypted with the caller's master key before anything is persisted.
type AccountParams struct {
	Name     string
	GroupID  int64
	Level    int16
	Username string
	Password string
}

// AccountCredentials is the decrypted view returned by GetAccount. The
// server decrypts on behalf of the caller; plaintext exists only in this
// response, never at rest.
type AccountCredentials struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccountService orchestrates group and account CRUD with per-user
// envelope encryption of stored passwords.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AccountService {
	return &AccountService{db: db, repomanager: m, logger: logger}
}

// RegisterGroup creates a group owned by the caller.
func (s *AccountService) RegisterGroup(ctx context.Context, userID int64, name string) (*models.AccountGroup, error) {
	group := &models.AccountGroup{UserID: userID, Name: name}
	group, err := s.repomanager.Accounts(s.db).CreateGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("error creating group: %w", err)
	}
	return group, nil
}

// ListGroups returns the caller's groups.
func (s *AccountService) ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error) {
	groups, err := s.repomanager.Accounts(s.db).ListGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	return groups, nil
}

// RegisterAccount validates that the target group belongs to the caller,
// encrypts the submitted credential with the caller's master key, and
// persists the account together with its first password row in one
// transaction.
func (s *AccountService) RegisterAccount(ctx context.Context, userID int64, params AccountParams) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	if _, err := repo.GetGroup(ctx, params.GroupID, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidAccountGroup
		}
		return nil, fmt.Errorf("error searching group: %w", err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	defer cryptox.WipeByteArray(user.MasterKey)

	ciphertext, err := cryptox.Encrypt(user.MasterKey, params.Password)
	if err != nil {
		return nil, fmt.Errorf("error encrypting password: %w", err)
	}

	account := &models.Account{
		UserID:         userID,
		AccountGroupID: params.GroupID,
		Level:          params.Level,
		Name:           params.Name,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Accounts(tx)
		if _, err := repoTx.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("error creating account: %w", err)
		}
		password := &models.AccountPassword{
			AccountID: account.ID,
			Username:  params.Username,
			Password:  ciphertext,
		}
		if _, err := repoTx.CreatePassword(ctx, password); err != nil {
			return fmt.Errorf("error creating account password: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts returns the caller's accounts, optionally limited to one
// group.
func (s *AccountService) ListAccounts(ctx context.Context, userID int64, groupID *int64) ([]*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	var (
		accounts []*models.Account
		err      error
	)
	if groupID != nil {
		accounts, err = repo.ListAccountsByGroup(ctx, userID, *groupID)
	} else {
		accounts, err = repo.ListAccounts(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount loads an account the caller owns and returns its most recent
// credential, decrypted with the caller's master key. An account belonging
// to someone else is indistinguishable from a missing one. An account with
// no stored credential yet yields empty username/password.
func (s *AccountService) GetAccount(ctx context.Context, userID, accountID int64) (*AccountCredentials, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetAccount(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	view := &AccountCredentials{ID: account.ID, Name: account.Name}

	latest, err := repo.GetLatestPassword(ctx, account.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return view, nil
		}
		return nil, fmt.Errorf("error searching account password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	defer cryptox.WipeByteArray(user.MasterKey)

	plaintext, err := cryptox.Decrypt(user.MasterKey, latest.Password)
	if err != nil {
		return nil, err
	}

	view.Username = latest.Username
	view.Password = plaintext
	return view, nil
}
