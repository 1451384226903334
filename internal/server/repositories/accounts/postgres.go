// Package accounts provides the PostgreSQL-backed repository for account
// groups, accounts, and their encrypted credential history.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/dbx"
	"github.com/openpasswd/openpasswd/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *models.AccountGroup) (*models.AccountGroup, error) {
	query := `
		INSERT INTO account_groups (user_id, name)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, group.UserID, group.Name).Scan(&group.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return group, nil
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID, userID int64) (*models.AccountGroup, error) {
	query := `
		SELECT id, user_id, name FROM account_groups
		WHERE id = $1 AND user_id = $2
	`
	group := &models.AccountGroup{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&group.ID, &group.UserID, &group.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return group, nil
}

func (r *PostgresRepository) ListGroups(ctx context.Context, userID int64) ([]*models.AccountGroup, error) {
	query := `
		SELECT id, user_id, name FROM account_groups
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var groups []*models.AccountGroup
	for rows.Next() {
		group := &models.AccountGroup{}
		if err := rows.Scan(&group.ID, &group.UserID, &group.Name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return groups, nil
}

func (r *PostgresRepository) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (user_id, account_group_id, level, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.AccountGroupID, account.Level, account.Name).Scan(&account.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetAccount(ctx context.Context, accountID, userID int64) (*models.Account, error) {
	query := `
		SELECT id, user_id, account_group_id, level, name FROM accounts
		WHERE id = $1 AND user_id = $2
	`
	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, accountID, userID).
		Scan(&account.ID, &account.UserID, &account.AccountGroupID, &account.Level, &account.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) ListAccounts(ctx context.Context, userID int64) ([]*models.Account, error) {
	query := `
		SELECT id, user_id, account_group_id, level, name FROM accounts
		WHERE user_id = $1
		ORDER BY id
	`
	return r.queryAccounts(ctx, query, userID)
}

func (r *PostgresRepository) ListAccountsByGroup(ctx context.Context, userID, groupID int64) ([]*models.Account, error) {
	query := `
		SELECT id, user_id, account_group_id, level, name FROM accounts
		WHERE user_id = $1 AND account_group_id = $2
		ORDER BY id
	`
	return r.queryAccounts(ctx, query, userID, groupID)
}

func (r *PostgresRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account := &models.Account{}
		err := rows.Scan(&account.ID, &account.UserID, &account.AccountGroupID, &account.Level, &account.Name)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return accounts, nil
}

func (r *PostgresRepository) CreatePassword(ctx context.Context, password *models.AccountPassword) (*models.AccountPassword, error) {
	query := `
		INSERT INTO account_passwords (account_id, username, password, created_date)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_date
	`
	err := r.db.QueryRowContext(ctx, query,
		password.AccountID, password.Username, password.Password).
		Scan(&password.ID, &password.CreatedDate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return password, nil
}

func (r *PostgresRepository) GetLatestPassword(ctx context.Context, accountID int64) (*models.AccountPassword, error) {
	query := `
		SELECT id, account_id, username, password, created_date FROM account_passwords
		WHERE account_id = $1
		ORDER BY created_date DESC, id DESC
		LIMIT 1
	`
	password := &models.AccountPassword{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&password.ID, &password.AccountID, &password.Username, &password.Password, &password.CreatedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return password, nil
}
