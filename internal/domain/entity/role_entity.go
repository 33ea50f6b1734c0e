package entity

import "time"

// Role names seeded at deployment time.
const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// Role is a named permission bundle. Roles are seeded once and read-only at runtime.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// RolePermissions is the seed definition for every built-in role.
var RolePermissions = map[string][]Permission{
	RoleOwner: {
		PermissionCreateWorkspace,
		PermissionEditWorkspace,
		PermissionDeleteWorkspace,
		PermissionManageWorkspaceSettings,
		PermissionAddMember,
		PermissionChangeMemberRole,
		PermissionRemoveMember,
		PermissionCreateProject,
		PermissionEditProject,
		PermissionDeleteProject,
		PermissionCreateTask,
		PermissionEditTask,
		PermissionDeleteTask,
		PermissionViewOnly,
	},
	RoleAdmin: {
		PermissionAddMember,
		PermissionCreateProject,
		PermissionEditProject,
		PermissionDeleteProject,
		PermissionCreateTask,
		PermissionEditTask,
		PermissionDeleteTask,
		PermissionManageWorkspaceSettings,
		PermissionViewOnly,
	},
	RoleMember: {
		PermissionViewOnly,
		PermissionCreateTask,
		PermissionEditTask,
	},
}

// DefaultRoles builds the built-in roles from RolePermissions, without IDs.
func DefaultRoles() []Role {
	names := []string{RoleOwner, RoleAdmin, RoleMember}
	roles := make([]Role, 0, len(names))
	for _, n := range names {
		perms := make([]Permission, len(RolePermissions[n]))
		copy(perms, RolePermissions[n])
		roles = append(roles, Role{Name: n, Permissions: perms})
	}
	return roles
}
