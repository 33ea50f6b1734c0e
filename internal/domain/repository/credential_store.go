package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/teamsync/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)

// CredentialStore persists users, accounts, roles, workspaces and members.
// Any error other than ErrNotFound or ErrConflict is a store failure.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindUserByID loads a user; the password hash is only read when includePassword is set.
	FindUserByID(ctx context.Context, id string, includePassword bool) (*entity.User, error)
	CreateUser(ctx context.Context, u *entity.User) error
	UpdateUserCurrentWorkspace(ctx context.Context, userID, workspaceID string) error

	FindAccountByProvider(ctx context.Context, provider entity.Provider, providerID string) (*entity.Account, error)
	CreateAccount(ctx context.Context, a *entity.Account) error

	CreateWorkspace(ctx context.Context, w *entity.Workspace) error

	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)
	CreateMember(ctx context.Context, m *entity.Member) error
	// FindMembersByWorkspace returns members with their Role populated.
	FindMembersByWorkspace(ctx context.Context, workspaceID string) ([]entity.Member, error)

	// InTx runs fn against a store whose writes commit together or not at all.
	InTx(ctx context.Context, fn func(tx CredentialStore) error) error
}
