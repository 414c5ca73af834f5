package session

import "github.com/upb/coe-portal/models"

// Reasons a gate can refuse access
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonRoleNotAllowed  = "role_not_allowed"
)

// Decision is the outcome of a gate check. When Allowed is false, Redirect
// names where the caller should be sent instead.
type Decision struct {
	Allowed  bool
	Redirect string
	Reason   string
}

// Gate decides whether a session may see a protected view
type Gate struct {
	LoginPath    string
	FallbackPath string
}

// NewGate creates a Gate, defaulting empty paths to /login and /
func NewGate(loginPath, fallbackPath string) Gate {
	if loginPath == "" {
		loginPath = "/login"
	}
	if fallbackPath == "" {
		fallbackPath = "/"
	}
	return Gate{LoginPath: loginPath, FallbackPath: fallbackPath}
}

// Check grants access iff the session has a user whose role is in allowed
func (g Gate) Check(s *Session, allowed ...models.Role) Decision {
	if s == nil {
		return g.CheckUser(nil, allowed...)
	}
	return g.CheckUser(s.User(), allowed...)
}

// CheckUser applies the gate to a user directly
func (g Gate) CheckUser(u *models.User, allowed ...models.Role) Decision {
	if u == nil {
		return Decision{Redirect: g.LoginPath, Reason: ReasonUnauthenticated}
	}
	for _, r := range allowed {
		if u.Role == r {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: g.FallbackPath, Reason: ReasonRoleNotAllowed}
}
