package entity

import "time"

// Workspace is the tenant boundary. Only the fields provisioning needs live here.
type Workspace struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	InviteCode  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member binds a User to a Workspace with a Role.
// At most one Member exists per (UserID, WorkspaceID).
type Member struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	WorkspaceID string    `json:"workspace_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}
