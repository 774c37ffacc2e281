package model

import "time"

// User represents an account as stored in the `users` table.  Email is the
// login identifier and is always stored normalized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, normalized email address.
//  Name         – display name (may be empty).
//  PasswordHash – bcrypt hash, or an unusable marker when no password was set.
//  IsActive     – inactive users cannot obtain or use tokens.
//  IsStaff      – may access operator tooling.
//  IsSuperuser  – has every permission.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	IsStaff      bool      // users.is_staff
	IsSuperuser  bool      // users.is_superuser
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// AuthToken models a row in `auth_tokens`.  The key is an opaque string with
// no embedded structure; each user owns at most one token.
type AuthToken struct {
	Key       string    // auth_tokens.token_key
	UserID    uint64    // auth_tokens.user_id
	CreatedAt time.Time // auth_tokens.created_at
}
