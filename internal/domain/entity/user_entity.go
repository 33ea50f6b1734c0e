package entity

import (
	"time"
)

// User is the identity record behind every account.
// PasswordHash holds a bcrypt hash and is empty for provider-only users.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	ProfilePicture   string    `json:"profile_picture,omitempty"`
	PasswordHash     string    `json:"-"`
	CurrentWorkspace string    `json:"current_workspace,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can sign in with email and password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}

// WithoutPassword returns a copy of the user with the password hash cleared.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}
