package models

import "time"

// Role determines what a user may do in the application.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleRecorder Role = "recorder"
	RoleViewer   Role = "viewer"
	RoleAuditor  Role = "auditor"
)

// User is a local account. Email is unique case-insensitively.
//
// PasswordHash holds a bcrypt hash. The original deployment stored plaintext
// passwords; that is explicitly not carried forward.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AuthUser is the identity carried by an active session. It is what gets
// persisted across restarts and published to identity subscribers; it never
// includes the credential hash.
type AuthUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CanEdit reports whether the role may create or modify records.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleRecorder
}

// CanView reports whether the role may read records at all.
func (r Role) CanView() bool {
	switch r {
	case RoleAdmin, RoleRecorder, RoleViewer, RoleAuditor:
		return true
	}
	return false
}

// CanManageUsers reports whether the role may administer user accounts.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanViewFinancials reports whether the role may see contribution and
// expense figures.
func (r Role) CanViewFinancials() bool {
	return r == RoleAdmin || r == RoleAuditor
}
