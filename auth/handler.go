// Package auth serves the login, logout and session endpoints that drive the
// portal's session state.
package auth

import (
	"context"
	"net/http"

	"github.com/upb/coe-portal/handlers"
	"github.com/upb/coe-portal/middleware"
	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/services/audit"
	"github.com/upb/coe-portal/session"
	"github.com/upb/coe-portal/utils"
	"go.uber.org/zap"
)

// LoginRequest is the POST /auth/login body
type LoginRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

// LoginResponse reports the outcome of a login attempt
type LoginResponse struct {
	Success  bool         `json:"success"`
	User     *models.User `json:"user,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
}

// SessionResponse describes the current session
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	Role          models.Role  `json:"role"`
	User          *models.User `json:"user"`
}

// Renewer moves a session onto a fresh id and cookie
type Renewer interface {
	Renew(ctx context.Context, w http.ResponseWriter, s *session.Session) error
}

// Handler handles the session login flow
type Handler struct {
	renewer  Renewer
	recorder audit.Recorder
	logger   *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(renewer Renewer, recorder audit.Recorder, logger *zap.Logger) *Handler {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Handler{
		renewer:  renewer,
		recorder: recorder,
		logger:   logger,
	}
}

// requestSession returns the request's session or answers 500 when the
// session middleware did not run
func (h *Handler) requestSession(w http.ResponseWriter, r *http.Request) *session.Session {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		h.logger.Error("session missing from request context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		_ = utils.WriteInternalServerError(w, "Session not initialised")
	}
	return s
}

// HandleLogin handles POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	s := h.requestSession(w, r)
	if s == nil {
		return
	}

	var req LoginRequest
	if err := utils.DecodeAndValidate(r, &req); err != nil {
		handlers.HandleValidationError(w, err, h.logger)
		return
	}

	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	if !s.Login(ctx, req.Email) {
		h.logger.Info("login rejected", zap.String("request_id", requestID))
		h.recorder.Record(audit.LoginFailed(s.ID(), req.Email).
			WithRequest(requestID, r.RemoteAddr, r.UserAgent()))
		_ = utils.WriteJSON(w, http.StatusUnauthorized, LoginResponse{Success: false})
		return
	}

	// a successful login never keeps the pre-login session id
	if err := h.renewer.Renew(ctx, w, s); err != nil {
		h.logger.Error("failed to renew session after login",
			zap.String("request_id", requestID),
			zap.Error(err))
		s.Logout(ctx)
		_ = utils.WriteInternalServerError(w, "Failed to start session")
		return
	}

	user := s.User()
	h.logger.Info("login succeeded",
		zap.String("request_id", requestID),
		zap.String("role", user.Role.String()))
	h.recorder.Record(audit.LoginSucceeded(s.ID(), user).
		WithRequest(requestID, r.RemoteAddr, r.UserAgent()))

	_ = utils.WriteJSON(w, http.StatusOK, LoginResponse{
		Success:  true,
		User:     user,
		Redirect: user.Role.HomePath(),
	})
}

// HandleLogout handles POST /auth/logout. Logging out is unconditional.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s := h.requestSession(w, r)
	if s == nil {
		return
	}

	ctx := r.Context()
	user := s.User()
	s.Logout(ctx)

	h.recorder.Record(audit.Logout(s.ID(), user).
		WithRequest(middleware.GetRequestIDFromContext(ctx), r.RemoteAddr, r.UserAgent()))

	_ = utils.WriteJSON(w, http.StatusOK, LoginResponse{Success: true})
}

// HandleSession handles GET /auth/session
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	s := h.requestSession(w, r)
	if s == nil {
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, SessionResponse{
		Authenticated: s.IsAuthenticated(),
		Role:          s.Role(),
		User:          s.User(),
	})
}
