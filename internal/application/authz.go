package application

import (
	"context"

	"github.com/oksasatya/teamsync/internal/domain/entity"
	repo "github.com/oksasatya/teamsync/internal/domain/repository"
)

// ResolvePermissions returns the permission set userID holds among members.
// The match is on user id only; a non-member resolves to the empty set.
func ResolvePermissions(userID string, members []entity.Member) entity.PermissionSet {
	if userID == "" {
		return entity.NewPermissionSet()
	}
	for _, m := range members {
		if m.UserID == userID {
			return entity.NewPermissionSet(m.Role.Permissions...)
		}
	}
	return entity.NewPermissionSet()
}

// HasPermission is a pure membership check on a resolved set.
func HasPermission(set entity.PermissionSet, p entity.Permission) bool {
	return set.Has(p)
}

// Authorizer resolves permissions for a user in a workspace.
type Authorizer struct {
	Store repo.CredentialStore
}

func NewAuthorizer(store repo.CredentialStore) *Authorizer {
	return &Authorizer{Store: store}
}

// Members returns the workspace's members with roles.
func (a *Authorizer) Members(ctx context.Context, workspaceID string) ([]entity.Member, error) {
	members, err := a.Store.FindMembersByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, storeErr("find members", err)
	}
	return members, nil
}

// Permissions returns the effective permission set of userID in workspaceID.
func (a *Authorizer) Permissions(ctx context.Context, userID, workspaceID string) (entity.PermissionSet, error) {
	members, err := a.Members(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return ResolvePermissions(userID, members), nil
}

func (a *Authorizer) HasPermission(ctx context.Context, userID, workspaceID string, p entity.Permission) (bool, error) {
	set, err := a.Permissions(ctx, userID, workspaceID)
	if err != nil {
		return false, err
	}
	return HasPermission(set, p), nil
}

// Require returns ErrForbidden unless userID holds p in workspaceID.
func (a *Authorizer) Require(ctx context.Context, userID, workspaceID string, p entity.Permission) error {
	ok, err := a.HasPermission(ctx, userID, workspaceID, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
