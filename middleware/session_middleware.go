package middleware

import (
	"context"
	"net/http"

	"github.com/upb/coe-portal/session"
	"github.com/upb/coe-portal/utils"
	"go.uber.org/zap"
)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionMiddleware attaches a restored session to every request
type SessionMiddleware struct {
	provider *session.Provider
	codec    *session.CookieCodec
	cookie   CookieConfig
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(provider *session.Provider, codec *session.CookieCodec, cookie CookieConfig, logger *zap.Logger) *SessionMiddleware {
	if cookie.Name == "" {
		cookie.Name = "portal_session"
	}
	return &SessionMiddleware{
		provider: provider,
		codec:    codec,
		cookie:   cookie,
		logger:   logger,
	}
}

// LoadSession resolves the session cookie, issuing a new one when it is
// missing or fails verification, and stores the session in the context
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		sessionID := m.sessionIDFromCookie(r)
		fresh := sessionID == ""
		if fresh {
			sessionID = m.provider.NewID()
		}

		s, err := m.provider.Open(ctx, sessionID)
		if err != nil {
			m.logger.Error("failed to open session",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteServiceUnavailable(w, "Session storage unavailable")
			return
		}

		if fresh {
			if err := m.issueCookie(w, sessionID); err != nil {
				m.logger.Error("failed to issue session cookie",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, "Failed to start session")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
	})
}

// Renew moves s to a fresh session id and sets the matching cookie. Call it
// when the session changes identity, before the response body is written.
func (m *SessionMiddleware) Renew(ctx context.Context, w http.ResponseWriter, s *session.Session) error {
	id := m.provider.NewID()
	value, err := m.codec.Encode(id)
	if err != nil {
		return err
	}

	m.provider.RotateTo(ctx, s, id)
	m.setCookie(w, value)
	return nil
}

func (m *SessionMiddleware) sessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(m.cookie.Name)
	if err != nil || c.Value == "" {
		return ""
	}

	id, err := m.codec.Decode(c.Value)
	if err != nil {
		m.logger.Debug("rejecting session cookie",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		return ""
	}
	return id
}

// issueCookie sets a browser-session cookie (no Max-Age) carrying the signed id
func (m *SessionMiddleware) issueCookie(w http.ResponseWriter, sessionID string) error {
	value, err := m.codec.Encode(sessionID)
	if err != nil {
		return err
	}
	m.setCookie(w, value)
	return nil
}

func (m *SessionMiddleware) setCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
