package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/dbx"
	"github.com/openpasswd/openpasswd/internal/logging"
	"github.com/openpasswd/openpasswd/internal/server/models"
	accountsrepo "github.com/openpasswd/openpasswd/internal/server/repositories/accounts"
	devicesrepo "github.com/openpasswd/openpasswd/internal/server/repositories/devices"
	recoveriesrepo "github.com/openpasswd/openpasswd/internal/server/repositories/recoveries"
	usersrepo "github.com/openpasswd/openpasswd/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (nopLogger) With(...any) logging.Logger            { return nopLogger{} }

// --- stateful fakes; the DBTX argument is ignored ---

type fakeUsersRepo struct {
	byID   map[int64]*models.User
	nextID int64

	updatedPasswords map[int64]string
	lastLoginSet     map[int64]bool
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byID:             make(map[int64]*models.User),
		updatedPasswords: make(map[int64]string),
		lastLoginSet:     make(map[int64]bool),
	}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	copied.MasterKey = append([]byte(nil), u.MasterKey...)
	return &copied, nil
}

func (f *fakeUsersRepo) UpdateLastLogin(_ context.Context, id int64) error {
	f.lastLoginSet[id] = true
	return nil
}

func (f *fakeUsersRepo) UpdateFailAttempts(_ context.Context, id int64, attempts int32) error {
	if u, ok := f.byID[id]; ok {
		u.FailAttempts = attempts
	}
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.updatedPasswords[id] = hash
	if u, ok := f.byID[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

type fakeDevicesRepo struct {
	names map[int64]map[string]bool
}

func newFakeDevicesRepo() *fakeDevicesRepo {
	return &fakeDevicesRepo{names: make(map[int64]map[string]bool)}
}

func (f *fakeDevicesRepo) FindName(_ context.Context, userID int64, name string) (string, error) {
	if f.names[userID][name] {
		return name, nil
	}
	return "", common.ErrorNotFound
}

func (f *fakeDevicesRepo) Create(_ context.Context, userID int64, name string) error {
	if f.names[userID] == nil {
		f.names[userID] = make(map[string]bool)
	}
	f.names[userID][name] = true
	return nil
}

type fakeAccountsRepo struct {
	groups    map[int64]*models.AccountGroup
	accounts  map[int64]*models.Account
	passwords []*models.AccountPassword
	nextID    int64
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{
		groups:   make(map[int64]*models.AccountGroup),
		accounts: make(map[int64]*models.Account),
	}
}

func (f *fakeAccountsRepo) CreateGroup(_ context.Context, g *models.AccountGroup) (*models.AccountGroup, error) {
	f.nextID++
	g.ID = f.nextID
	f.groups[g.ID] = g
	return g, nil
}

func (f *fakeAccountsRepo) GetGroup(_ context.Context, groupID, userID int64) (*models.AccountGroup, error) {
	g, ok := f.groups[groupID]
	if !ok || g.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return g, nil
}

func (f *fakeAccountsRepo) ListGroups(_ context.Context, userID int64) ([]*models.AccountGroup, error) {
	var out []*models.AccountGroup
	for _, g := range f.groups {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeAccountsRepo) CreateAccount(_ context.Context, a *models.Account) (*models.Account, error) {
	f.nextID++
	a.ID = f.nextID
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeAccountsRepo) GetAccount(_ context.Context, accountID, userID int64) (*models.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (f *fakeAccountsRepo) ListAccounts(_ context.Context, userID int64) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountsRepo) ListAccountsByGroup(_ context.Context, userID, groupID int64) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		if a.UserID == userID && a.AccountGroupID == groupID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountsRepo) CreatePassword(_ context.Context, p *models.AccountPassword) (*models.AccountPassword, error) {
	f.nextID++
	p.ID = f.nextID
	if p.CreatedDate.IsZero() {
		p.CreatedDate = time.Now()
	}
	f.passwords = append(f.passwords, p)
	return p, nil
}

func (f *fakeAccountsRepo) GetLatestPassword(_ context.Context, accountID int64) (*models.AccountPassword, error) {
	var latest *models.AccountPassword
	for _, p := range f.passwords {
		if p.AccountID != accountID {
			continue
		}
		if latest == nil || p.CreatedDate.After(latest.CreatedDate) {
			latest = p
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest, nil
}

type fakeRecoveriesRepo struct {
	byToken map[string]*models.PasswordRecovery
}

func newFakeRecoveriesRepo() *fakeRecoveriesRepo {
	return &fakeRecoveriesRepo{byToken: make(map[string]*models.PasswordRecovery)}
}

func (f *fakeRecoveriesRepo) Create(_ context.Context, r *models.PasswordRecovery) error {
	f.byToken[r.Token] = r
	return nil
}

func (f *fakeRecoveriesRepo) FindByToken(_ context.Context, token string) (*models.PasswordRecovery, error) {
	r, ok := f.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRecoveriesRepo) Invalidate(_ context.Context, token string) error {
	if r, ok := f.byToken[token]; ok {
		r.Valid = false
	}
	return nil
}

type fakeRepoManager struct {
	users      *fakeUsersRepo
	devices    *fakeDevicesRepo
	accounts   *fakeAccountsRepo
	recoveries *fakeRecoveriesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsersRepo(),
		devices:    newFakeDevicesRepo(),
		accounts:   newFakeAccountsRepo(),
		recoveries: newFakeRecoveriesRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                { return m.users }
func (m *fakeRepoManager) Devices(dbx.DBTX) devicesrepo.Repository            { return m.devices }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accountsrepo.Repository          { return m.accounts }
func (m *fakeRepoManager) Recoveries(dbx.DBTX) recoveriesrepo.Repository      { return m.recoveries }

type fakeMailer struct {
	sent []string // message bodies
	err  error
}

func (f *fakeMailer) Send(_ context.Context, toName, toEmail, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, body)
	return nil
}
