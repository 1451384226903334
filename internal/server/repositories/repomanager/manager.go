package repomanager

import (
	"context"
	"database/sql"

	"github.com/openpasswd/openpasswd/internal/dbx"
	"github.com/openpasswd/openpasswd/internal/server/repositories/accounts"
	"github.com/openpasswd/openpasswd/internal/server/repositories/devices"
	"github.com/openpasswd/openpasswd/internal/server/repositories/recoveries"
	"github.com/openpasswd/openpasswd/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run any repository against either the pool or an open
// transaction, and exposes the schema migration hook.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Recoveries(db dbx.DBTX) recoveries.Repository
}
