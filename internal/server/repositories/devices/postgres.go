// Package devices provides the PostgreSQL-backed repository for the named
// clients a user logs in from.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindName(ctx context.Context, userID int64, name string) (string, error) {
	query := `
		SELECT name FROM devices
		WHERE user_id = $1 AND name = $2
	`
	var found string
	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, name string) error {
	query := `
		INSERT INTO devices (user_id, name)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
