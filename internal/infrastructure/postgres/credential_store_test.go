package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/domain/repository"
)

func newMockStore(t *testing.T) (*CredentialStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewCredentialStore(mock), mock
}

var userColumns = []string{"id", "email", "name", "profile_picture", "password_hash", "current_workspace", "created_at", "updated_at"}

func TestFindUserByID_PasswordOnlyWhenRequested(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id::text, email, name, COALESCE\(profile_picture, ''\), '',`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("u1", "a@x.com", "A", "", "", "w1", now, now))

	u, err := store.FindUserByID(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "w1", u.CurrentWorkspace)

	mock.ExpectQuery(`COALESCE\(password_hash, ''\)`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("u1", "a@x.com", "A", "", "$2a$hash", "w1", now, now))

	u, err = store.FindUserByID(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByEmail_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM users\s+WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.FindUserByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindUserByID_MalformedIDIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE id = \$1`).
		WithArgs("not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: codeInvalidText})

	_, err := store.FindUserByID(context.Background(), "not-a-uuid", false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateUser_UniqueViolationIsConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@x.com", "A", nil, "hash").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	err := store.CreateUser(context.Background(), &entity.User{Email: "a@x.com", Name: "A", PasswordHash: "hash"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestFindRoleByName(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectQuery(`FROM roles\s+WHERE name = \$1`).
		WithArgs(entity.RoleOwner).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "permissions", "created_at", "updated_at"}).
			AddRow("r1", entity.RoleOwner, []string{"VIEW_ONLY", "ADD_MEMBER"}, now, now))

	r, err := store.FindRoleByName(context.Background(), entity.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, []entity.Permission{entity.PermissionViewOnly, entity.PermissionAddMember}, r.Permissions)
}

func TestFindMembersByWorkspace(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	cols := []string{"id", "user_id", "workspace_id", "joined_at", "role_id", "role_name", "permissions", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM members m\s+JOIN roles r`).
		WithArgs("w1").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("m1", "u1", "w1", now, "r1", entity.RoleOwner, []string{"VIEW_ONLY"}, now, now).
			AddRow("m2", "u2", "w1", now, "r3", entity.RoleMember, []string{"VIEW_ONLY", "EDIT_TASK"}, now, now))

	members, err := store.FindMembersByWorkspace(context.Background(), "w1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, entity.RoleOwner, members[0].Role.Name)
	assert.Equal(t, "u2", members[1].UserID)
	assert.Contains(t, members[1].Role.Permissions, entity.PermissionEditTask)
}

func TestFindMembersByWorkspace_MalformedIDIsEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM members m`).
		WithArgs("bogus").
		WillReturnError(&pgconn.PgError{Code: codeInvalidText})

	members, err := store.FindMembersByWorkspace(context.Background(), "bogus")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestUpdateUserCurrentWorkspace_NoRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE users SET current_workspace`).
		WithArgs("w1", "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateUserCurrentWorkspace(context.Background(), "u1", "w1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO workspaces`).
		WithArgs("My Workspace", "desc", "u1", "code").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("w1", now, now))
	mock.ExpectCommit()

	ws := &entity.Workspace{Name: "My Workspace", Description: "desc", OwnerID: "u1", InviteCode: "code"}
	err := store.InTx(context.Background(), func(tx repository.CredentialStore) error {
		return tx.CreateWorkspace(context.Background(), ws)
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", ws.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx repository.CredentialStore) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_NestedReusesTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := store.InTx(context.Background(), func(tx repository.CredentialStore) error {
		return tx.InTx(context.Background(), func(inner repository.CredentialStore) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
