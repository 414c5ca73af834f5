package models

import "strings"

// User is a portal account. Accounts come from a static table and are never
// mutated after creation; callers that need to hand a user out get a copy.
type User struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Email       string `json:"email" yaml:"email" validate:"required,email"`
	Role        Role   `json:"role" yaml:"role" validate:"required,oneof=ADMIN FACULTY STUDENT GUEST"`
	Department  string `json:"department,omitempty" yaml:"department,omitempty"`
	Designation string `json:"designation,omitempty" yaml:"designation,omitempty"`
	Phone       string `json:"phone,omitempty" yaml:"phone,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
}

// NewUser creates a new User with a normalised email
func NewUser(id, name, email string, role Role) *User {
	return &User{
		ID:    id,
		Name:  name,
		Email: NormalizeEmail(email),
		Role:  role,
	}
}

// NormalizeEmail trims and lower-cases an email so lookups ignore case
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Clone returns a copy of the user, or nil for a nil user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// RoleOrGuest returns the user's role, or RoleGuest when there is no user
func (u *User) RoleOrGuest() Role {
	if u == nil || !u.Role.Valid() {
		return RoleGuest
	}
	return u.Role
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
