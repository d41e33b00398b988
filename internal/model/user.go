package model

import "time"

// Role enumerates the application roles stored in users.role.  Keeping the
// set closed lets middleware and handlers switch exhaustively instead of
// comparing open strings.
type Role string

const (
	RoleMember Role = "MEMBER" // regular works-council member
	RoleAdmin  Role = "ADMIN"  // administrative staff
)

// ParseRole maps a raw claim or column value to a Role.  Unknown values
// return false so callers can treat them as unauthenticated.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMember:
		return RoleMember, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents a row of the `users` table.  The portal owns its identity
// records, so authentication fields live here.  Handlers define their own
// response types with JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (stored lower-cased).
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name shown on the portal.
//  Role         – closed role enumeration (MEMBER or ADMIN).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is persisted.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
