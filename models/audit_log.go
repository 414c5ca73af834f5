package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionLoginSucceeded AuditAction = "login_succeeded"
	AuditActionLoginFailed    AuditAction = "login_failed"
	AuditActionLogout         AuditAction = "logout"
	AuditActionAccessDenied   AuditAction = "access_denied"
)

// AuditLog represents an audit trail entry for session and gate activity
type AuditLog struct {
	ID        uuid.UUID   `json:"id"`
	Action    AuditAction `json:"action"`
	SessionID string      `json:"session_id"`
	Email     string      `json:"email,omitempty"`
	Role      Role        `json:"role,omitempty"`
	Path      string      `json:"path,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, sessionID string) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		Action:    action,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

// WithUser records the account involved, if any
func (a *AuditLog) WithUser(u *User) *AuditLog {
	if u != nil {
		a.Email = u.Email
		a.Role = u.Role
	}
	return a
}

// WithEmail records an attempted login email
func (a *AuditLog) WithEmail(email string) *AuditLog {
	a.Email = NormalizeEmail(email)
	return a
}

// WithDenial sets the protected path and the reason access was refused
func (a *AuditLog) WithDenial(path, reason string) *AuditLog {
	a.Path = path
	a.Reason = reason
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
