package model

import "time"

// Identity is an account of the built-in identity provider, stored in
// the `auth_users` table.
//
// Fields:
//
//	ID           – UUID shared with the profile row.
//	Email        – unique, normalized to lower case.
//	PasswordHash – bcrypt hash.
//	CreatedAt    – timestamp of creation.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
