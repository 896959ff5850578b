package model

import "time"

// Roles stored in profiles.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile is the application-side record of an account.  ID equals the
// identity id issued by the identity provider.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// UserRow is one line of the admin user list: a profile joined with the
// identity email and the number of completed devotionals.
type UserRow struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	AvatarURL       *string   `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
	DevotionalsRead int       `json:"devotionals_read"`
	IsAdmin         bool      `json:"is_admin"`
}
