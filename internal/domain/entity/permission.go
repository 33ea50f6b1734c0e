package entity

import "sort"

// Permission is an opaque token naming a single allowed action.
type Permission string

const (
	PermissionCreateWorkspace         Permission = "CREATE_WORKSPACE"
	PermissionDeleteWorkspace         Permission = "DELETE_WORKSPACE"
	PermissionEditWorkspace           Permission = "EDIT_WORKSPACE"
	PermissionManageWorkspaceSettings Permission = "MANAGE_WORKSPACE_SETTINGS"
	PermissionAddMember               Permission = "ADD_MEMBER"
	PermissionChangeMemberRole        Permission = "CHANGE_MEMBER_ROLE"
	PermissionRemoveMember            Permission = "REMOVE_MEMBER"
	PermissionCreateProject           Permission = "CREATE_PROJECT"
	PermissionEditProject             Permission = "EDIT_PROJECT"
	PermissionDeleteProject           Permission = "DELETE_PROJECT"
	PermissionCreateTask              Permission = "CREATE_TASK"
	PermissionEditTask                Permission = "EDIT_TASK"
	PermissionDeleteTask              Permission = "DELETE_TASK"
	PermissionViewOnly                Permission = "VIEW_ONLY"
)

// PermissionSet is an unordered set of permission tokens.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given tokens.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in the set. A nil set has no permissions.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// List returns the tokens sorted for stable output.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
