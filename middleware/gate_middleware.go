package middleware

import (
	"net/http"

	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/services/audit"
	"github.com/upb/coe-portal/session"
	"go.uber.org/zap"
)

// GateMiddleware protects routes by role
type GateMiddleware struct {
	gate     session.Gate
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewGateMiddleware creates a new GateMiddleware
func NewGateMiddleware(gate session.Gate, recorder audit.Recorder, logger *zap.Logger) *GateMiddleware {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &GateMiddleware{
		gate:     gate,
		recorder: recorder,
		logger:   logger,
	}
}

// Gate returns the underlying gate
func (m *GateMiddleware) Gate() session.Gate {
	return m.gate
}

// RequireRoles lets the request through only when the session user's role is
// one of roles; otherwise it answers 302 Found to the gate's redirect.
// Must run after SessionMiddleware.LoadSession.
func (m *GateMiddleware) RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)
			s := GetSessionFromContext(ctx)

			decision := m.gate.Check(s, roles...)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			var (
				sessionID string
				user      *models.User
			)
			if s != nil {
				sessionID = s.ID()
				user = s.User()
			}

			m.logger.Info("access denied",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path),
				zap.String("reason", decision.Reason),
				zap.String("redirect", decision.Redirect))

			m.recorder.Record(audit.AccessDenied(sessionID, user, r.URL.Path, decision.Reason).
				WithRequest(requestID, r.RemoteAddr, r.UserAgent()))

			http.Redirect(w, r, decision.Redirect, http.StatusFound)
		})
	}
}
