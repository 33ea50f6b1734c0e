package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	"github.com/oksasatya/teamsync/internal/domain/repository"
)

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxStarter is a DBTX that can open transactions, i.e. a pool.
type TxStarter interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CredentialStore implements repository.CredentialStore on Postgres.
type CredentialStore struct {
	db   DBTX
	pool TxStarter // nil inside a transaction
}

func NewCredentialStore(pool TxStarter) *CredentialStore {
	return &CredentialStore{db: pool, pool: pool}
}

const (
	selectUser = `
		SELECT id::text, email, name, COALESCE(profile_picture, ''), '',
		       COALESCE(current_workspace::text, ''), created_at, updated_at
		FROM users`
	selectUserWithPassword = `
		SELECT id::text, email, name, COALESCE(profile_picture, ''), COALESCE(password_hash, ''),
		       COALESCE(current_workspace::text, ''), created_at, updated_at
		FROM users`
)

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.ProfilePicture, &u.PasswordHash,
		&u.CurrentWorkspace, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *CredentialStore) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
	if err != nil {
		return nil, mapErr("find user by email", err)
	}
	return u, nil
}

func (s *CredentialStore) FindUserByID(ctx context.Context, id string, includePassword bool) (*entity.User, error) {
	q := selectUser
	if includePassword {
		q = selectUserWithPassword
	}
	u, err := scanUser(s.db.QueryRow(ctx, q+` WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("find user by id", err)
	}
	return u, nil
}

func (s *CredentialStore) CreateUser(ctx context.Context, u *entity.User) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (email, name, profile_picture, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at, updated_at
	`, u.Email, u.Name, nullIfEmpty(u.ProfilePicture), nullIfEmpty(u.PasswordHash))
	return mapErr("create user", row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (s *CredentialStore) UpdateUserCurrentWorkspace(ctx context.Context, userID, workspaceID string) error {
	res, err := s.db.Exec(ctx, `
		UPDATE users SET current_workspace = $1, updated_at = now()
		WHERE id = $2
	`, workspaceID, userID)
	if err != nil {
		return mapErr("update user current workspace", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *CredentialStore) FindAccountByProvider(ctx context.Context, provider entity.Provider, providerID string) (*entity.Account, error) {
	a := &entity.Account{}
	var p string
	err := s.db.QueryRow(ctx, `
		SELECT id::text, user_id::text, provider, provider_id, created_at
		FROM accounts
		WHERE provider = $1 AND provider_id = $2
	`, string(provider), providerID).Scan(&a.ID, &a.UserID, &p, &a.ProviderID, &a.CreatedAt)
	if err != nil {
		return nil, mapErr("find account", err)
	}
	a.Provider = entity.Provider(p)
	return a, nil
}

func (s *CredentialStore) CreateAccount(ctx context.Context, a *entity.Account) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO accounts (user_id, provider, provider_id)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at
	`, a.UserID, string(a.Provider), a.ProviderID)
	return mapErr("create account", row.Scan(&a.ID, &a.CreatedAt))
}

func (s *CredentialStore) CreateWorkspace(ctx context.Context, w *entity.Workspace) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO workspaces (name, description, owner_id, invite_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at, updated_at
	`, w.Name, w.Description, w.OwnerID, w.InviteCode)
	return mapErr("create workspace", row.Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt))
}

func (s *CredentialStore) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	r := &entity.Role{}
	var perms []string
	err := s.db.QueryRow(ctx, `
		SELECT id::text, name, permissions, created_at, updated_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&r.ID, &r.Name, &perms, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapErr("find role", err)
	}
	r.Permissions = toPermissions(perms)
	return r, nil
}

// UpsertRole inserts or refreshes a built-in role. Used by the seed command.
func (s *CredentialStore) UpsertRole(ctx context.Context, r *entity.Role) error {
	perms := make([]string, len(r.Permissions))
	for i, p := range r.Permissions {
		perms[i] = string(p)
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO roles (name, permissions)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = now()
		RETURNING id::text, created_at, updated_at
	`, r.Name, perms)
	return mapErr("upsert role", row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt))
}

func (s *CredentialStore) CreateMember(ctx context.Context, m *entity.Member) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO members (user_id, workspace_id, role_id, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text
	`, m.UserID, m.WorkspaceID, m.Role.ID, m.JoinedAt)
	return mapErr("create member", row.Scan(&m.ID))
}

func (s *CredentialStore) FindMembersByWorkspace(ctx context.Context, workspaceID string) ([]entity.Member, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.id::text, m.user_id::text, m.workspace_id::text, m.joined_at,
		       r.id::text, r.name, r.permissions, r.created_at, r.updated_at
		FROM members m
		JOIN roles r ON r.id = m.role_id
		WHERE m.workspace_id = $1
		ORDER BY m.joined_at
	`, workspaceID)
	if err != nil {
		return emptyIfNotFound(mapErr("find members", err))
	}
	defer rows.Close()

	members := make([]entity.Member, 0)
	for rows.Next() {
		var m entity.Member
		var perms []string
		if err := rows.Scan(&m.ID, &m.UserID, &m.WorkspaceID, &m.JoinedAt,
			&m.Role.ID, &m.Role.Name, &perms, &m.Role.CreatedAt, &m.Role.UpdatedAt); err != nil {
			return nil, mapErr("scan member", err)
		}
		m.Role.Permissions = toPermissions(perms)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return emptyIfNotFound(mapErr("find members", err))
	}
	return members, nil
}

// InTx runs fn in a single transaction. Nested calls reuse the open transaction.
func (s *CredentialStore) InTx(ctx context.Context, fn func(tx repository.CredentialStore) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapErr("begin tx", err)
	}
	if err := fn(&CredentialStore{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return mapErr("commit tx", tx.Commit(ctx))
}

// a malformed workspace id has no members
func emptyIfNotFound(err error) ([]entity.Member, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return []entity.Member{}, nil
	}
	return nil, err
}

func toPermissions(in []string) []entity.Permission {
	out := make([]entity.Permission, len(in))
	for i, p := range in {
		out[i] = entity.Permission(p)
	}
	return out
}

var _ repository.CredentialStore = (*CredentialStore)(nil)
