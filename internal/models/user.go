// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's permission level in the system.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User represents a request principal. Real users authenticate with email,
// password and TOTP. Shadow users are disposable principals provisioned for
// sandboxed theme previews: they carry Anonymous=true, an empty password
// hash (so they can never log in), and an audit-only back-reference to the
// real user that spawned them.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	DisplayName  string     `json:"display_name"`
	Role         Role       `json:"role"`
	Anonymous    bool       `json:"anonymous"`
	ShadowOf     *uuid.UUID `json:"-"` // Audit only; never a basis for trust
	TOTPSecret   *string    `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool       `json:"totp_enabled"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsStaff returns true if the user has the admin role. Shadow users are
// never staff.
func (u *User) IsStaff() bool {
	return !u.Anonymous && u.Role == RoleAdmin
}

// Needs2FASetup returns true if the user has not completed 2FA enrollment.
// All real users must set up 2FA on their first login.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled
}
