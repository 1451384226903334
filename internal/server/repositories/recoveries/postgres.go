// Package recoveries provides the PostgreSQL-backed repository for
// single-use password recovery records.
package recoveries

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

func (r *PostgresRepository) Create(ctx context.Context, recovery *models.PasswordRecovery) error {
	query := `
		INSERT INTO user_password_recovery (token, user_id, issued_at, valid)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		recovery.Token, recovery.UserID, recovery.IssuedAt, recovery.Valid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.PasswordRecovery, error) {
	query := `
		SELECT token, user_id, issued_at, valid FROM user_password_recovery
		WHERE token = $1
	`
	recovery := &models.PasswordRecovery{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&recovery.Token, &recovery.UserID, &recovery.IssuedAt, &recovery.Valid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recovery, nil
}

func (r *PostgresRepository) Invalidate(ctx context.Context, token string) error {
	query := `
		UPDATE user_password_recovery SET valid = false
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
