// Package model defines the data structures used throughout the application.
//
// Structs here are plain data: JSON tags describe the wire shape served by the
// API and the repository layer scans rows into them field by field.
package model

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User is an internal account.
//
// ExternalID is the stable identifier issued by the identity provider, e.g.
// "google:1093...". It is empty for accounts an administrator created until
// their owner signs in for the first time. Email and ExternalID are each unique.
type User struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"externalId,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	MemberCode   string    `json:"memberCode,omitempty"` // university student/staff code
	PasswordHash string    `json:"-"`                    // only set for local accounts
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
