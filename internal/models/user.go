package models

import "time"

// Role is an account privilege tier
type Role string

// Role constants, ordered user < admin < super-admin
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Rank returns the position of the role in the privilege order, 0 for unknown roles
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r is the same as or above min
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && r.Rank() >= min.Rank()
}

// IsAdmin reports whether r is admin or super-admin
func (r Role) IsAdmin() bool {
	return r.AtLeast(RoleAdmin)
}

// ParseRole converts a string into a Role, returning false for unknown values
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}

// Account represents a user account in the system
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupRequest represents a signup request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}

// RoleChangeRequest addresses the target of promote/demote by id or email
type RoleChangeRequest struct {
	TargetID    string `json:"targetId,omitempty"`
	TargetEmail string `json:"targetEmail,omitempty"`
}

// MessageResponse is a confirmation with a human-readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse wraps the caller's account
type ProfileResponse struct {
	User *Account `json:"user"`
}

// UserListResponse wraps a list of accounts
type UserListResponse struct {
	Users []Account `json:"users"`
}
