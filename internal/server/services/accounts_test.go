package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/cryptox"
	"github.com/openpasswd/openpasswd/internal/server/models"
)

type accountTestEnv struct {
	svc  *AccountService
	rm   *fakeRepoManager
	mock sqlmock.Sqlmock
	db   *sql.DB
}

func newAccountTestEnv(t *testing.T) *accountTestEnv {
	t.Helper()
	db, mock := newSQLMockDB(t)
	t.Cleanup(func() { db.Close() })

	rm := newFakeRepoManager()
	svc := NewAccountService(db, rm, nopLogger{})
	return &accountTestEnv{svc: svc, rm: rm, mock: mock, db: db}
}

func (e *accountTestEnv) addUser(t *testing.T, email string) *models.User {
	t.Helper()
	key, err := cryptox.GenerateMasterKey()
	require.NoError(t, err)
	u, err := e.rm.users.Create(context.Background(), &models.User{Email: email, MasterKey: key})
	require.NoError(t, err)
	return u
}

func TestRegisterGroup(t *testing.T) {
	env := newAccountTestEnv(t)
	user := env.addUser(t, "alice@example.com")

	group, err := env.svc.RegisterGroup(context.Background(), user.ID, "Web")
	require.NoError(t, err)
	assert.NotZero(t, group.ID)
	assert.Equal(t, user.ID, group.UserID)
	assert.Equal(t, "Web", group.Name)
}

func TestListGroups_OnlyOwn(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	ctx := context.Background()

	_, err := env.svc.RegisterGroup(ctx, alice.ID, "Web")
	require.NoError(t, err)
	_, err = env.svc.RegisterGroup(ctx, bob.ID, "Banks")
	require.NoError(t, err)

	groups, err := env.svc.ListGroups(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Web", groups[0].Name)
}

func TestRegisterAccount_WrongGroup(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	ctx := context.Background()

	bobsGroup, err := env.svc.RegisterGroup(ctx, bob.ID, "Banks")
	require.NoError(t, err)

	// someone else's group
	_, err = env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
		Name: "bank", GroupID: bobsGroup.ID, Username: "alice", Password: "secret",
	})
	assert.ErrorIs(t, err, common.ErrInvalidAccountGroup)

	// nonexistent group
	_, err = env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
		Name: "bank", GroupID: 9999, Username: "alice", Password: "secret",
	})
	assert.ErrorIs(t, err, common.ErrInvalidAccountGroup)
}

func TestRegisterAccount_EncryptsAtRest(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	ctx := context.Background()

	group, err := env.svc.RegisterGroup(ctx, alice.ID, "Web")
	require.NoError(t, err)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	account, err := env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
		Name: "mail", GroupID: group.ID, Level: 2, Username: "alice", Password: "hunter2",
	})
	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.Equal(t, int16(2), account.Level)

	require.Len(t, env.rm.accounts.passwords, 1)
	stored := env.rm.accounts.passwords[0]
	assert.Equal(t, account.ID, stored.AccountID)
	assert.NotContains(t, string(stored.Password), "hunter2")

	plaintext, err := cryptox.Decrypt(env.rm.users.byID[alice.ID].MasterKey, stored.Password)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetAccount_DecryptsLatestCredential(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	ctx := context.Background()

	group, err := env.svc.RegisterGroup(ctx, alice.ID, "Web")
	require.NoError(t, err)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	account, err := env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
		Name: "mail", GroupID: group.ID, Username: "alice", Password: "hunter2",
	})
	require.NoError(t, err)

	view, err := env.svc.GetAccount(ctx, alice.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, view.ID)
	assert.Equal(t, "mail", view.Name)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "hunter2", view.Password)
}

func TestGetAccount_NotOwned(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	ctx := context.Background()

	group, err := env.svc.RegisterGroup(ctx, alice.ID, "Web")
	require.NoError(t, err)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit()

	account, err := env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
		Name: "mail", GroupID: group.ID, Username: "alice", Password: "hunter2",
	})
	require.NoError(t, err)

	_, err = env.svc.GetAccount(ctx, bob.ID, account.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetAccount_NoCredentialYet(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	ctx := context.Background()

	account, err := env.rm.accounts.CreateAccount(ctx, &models.Account{
		UserID: alice.ID, Name: "empty",
	})
	require.NoError(t, err)

	view, err := env.svc.GetAccount(ctx, alice.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "empty", view.Name)
	assert.Empty(t, view.Username)
	assert.Empty(t, view.Password)
}

func TestListAccounts_GroupFilter(t *testing.T) {
	env := newAccountTestEnv(t)
	alice := env.addUser(t, "alice@example.com")
	ctx := context.Background()

	web, err := env.svc.RegisterGroup(ctx, alice.ID, "Web")
	require.NoError(t, err)
	banks, err := env.svc.RegisterGroup(ctx, alice.ID, "Banks")
	require.NoError(t, err)

	for _, spec := range []struct {
		name    string
		groupID int64
	}{
		{"mail", web.ID},
		{"forum", web.ID},
		{"checking", banks.ID},
	} {
		env.mock.ExpectBegin()
		env.mock.ExpectCommit()
		_, err := env.svc.RegisterAccount(ctx, alice.ID, AccountParams{
			Name: spec.name, GroupID: spec.groupID, Username: "alice", Password: "pw",
		})
		require.NoError(t, err)
	}

	all, err := env.svc.ListAccounts(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	webOnly, err := env.svc.ListAccounts(ctx, alice.ID, &web.ID)
	require.NoError(t, err)
	assert.Len(t, webOnly, 2)
	for _, a := range webOnly {
		assert.Equal(t, web.ID, a.AccountGroupID)
	}
}
