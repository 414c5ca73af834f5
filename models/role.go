package models

import "strings"

// Role is the access tier of a portal user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleFaculty Role = "FACULTY"
	RoleStudent Role = "STUDENT"
	RoleGuest   Role = "GUEST"
)

// homePaths maps each role to the route its dashboard lives under.
var homePaths = map[Role]string{
	RoleAdmin:   "/admin",
	RoleFaculty: "/faculty",
	RoleStudent: "/student",
	RoleGuest:   "/",
}

// AllRoles returns every role in a stable order.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleFaculty, RoleStudent, RoleGuest}
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// Valid returns true if the role is one of the known tiers
func (r Role) Valid() bool {
	_, ok := homePaths[r]
	return ok
}

// HomePath returns the landing route for the role. Unknown roles land on "/".
func (r Role) HomePath() string {
	if p, ok := homePaths[r]; ok {
		return p
	}
	return "/"
}

// ParseRole converts a string to a Role, ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// UnmarshalText lets roles be decoded case-insensitively from JSON and YAML.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, ok := ParseRole(string(text))
	if !ok {
		return &InvalidRoleError{Value: string(text)}
	}
	*r = parsed
	return nil
}

// InvalidRoleError is returned when a role name is not recognised
type InvalidRoleError struct {
	Value string
}

func (e *InvalidRoleError) Error() string {
	return "unknown role " + `"` + e.Value + `"`
}
