package model

import "time"

// Role is the access level attached to an authenticated principal.
type Role string

const (
	// RoleMember is the default role for locally created accounts.
	RoleMember Role = "MEMBER"
	// RoleManager grants access to privileged member-management operations.
	// The only MANAGER identity is the configured admin; role escalation is
	// not exposed as a local operation.
	RoleManager Role = "MANAGER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleManager
}

// Member is a locally persisted user account. Credentials are stored as
// bcrypt hashes.
type Member struct {
	ID             int64     `json:"id" db:"id"`
	LoginID        string    `json:"loginId" db:"login_id"`
	CredentialHash string    `json:"-" db:"credential_hash"` // bcrypt hash, never expose
	Name           string    `json:"name" db:"name"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
