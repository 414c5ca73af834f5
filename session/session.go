// Package session holds the current identity of one browser session, the
// role gate that protects dashboard routes, and the signed cookie that ties
// a browser to its session id.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/upb/coe-portal/models"
	"github.com/upb/coe-portal/repositories"
	"go.uber.org/zap"
)

// StorageKey is the session storage key holding the JSON-serialised user
const StorageKey = "loggedInUser"

// Session is the current identity of one browser session. The in-memory
// user is authoritative; storage mirrors it so a reload can restore it.
//
// States: unauthenticated --Login ok--> authenticated(role) --Logout--> unauthenticated.
type Session struct {
	id       string
	accounts repositories.AccountDirectory
	storage  repositories.Storage
	logger   *zap.Logger

	mu   sync.RWMutex
	user *models.User
}

// New creates an unauthenticated session over the given storage
func New(id string, accounts repositories.AccountDirectory, storage repositories.Storage, logger *zap.Logger) *Session {
	return &Session{
		id:       id,
		accounts: accounts,
		storage:  storage,
		logger:   logger,
	}
}

// ID returns the session id
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Restore loads the user mirrored in storage. A payload that does not decode
// to a valid user is removed and the session stays unauthenticated. Only a
// storage read failure is returned.
func (s *Session) Restore(ctx context.Context) error {
	raw, found, err := s.storage.GetItem(ctx, StorageKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !found {
		s.user = nil
		return nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Email == "" || !u.Role.Valid() {
		s.logger.Warn("discarding malformed stored session",
			zap.String("session_id", s.id),
			zap.Error(err))
		s.user = nil
		s.removeStored(ctx)
		return nil
	}

	s.user = &u
	return nil
}

// Login establishes the account matching email as the current user. It
// returns false and leaves the session untouched when no account matches.
func (s *Session) Login(ctx context.Context, email string) bool {
	u, ok := s.accounts.FindByEmail(ctx, email)
	if !ok {
		s.logger.Debug("login lookup miss", zap.String("session_id", s.ID()))
		return false
	}

	payload, err := json.Marshal(u)
	if err != nil {
		s.logger.Error("failed to encode session user", zap.Error(err))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = u
	if err := s.storage.SetItem(ctx, StorageKey, string(payload)); err != nil {
		s.logger.Error("failed to persist session user",
			zap.String("session_id", s.id),
			zap.Error(err))
	}

	s.logger.Debug("login succeeded",
		zap.String("session_id", s.id),
		zap.String("role", u.Role.String()))
	return true
}

// Logout clears the current user and removes it from storage
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.removeStored(ctx)
}

// rekey moves the session to a new id and storage area. The current user,
// if any, is written under the new id and removed from the old one.
func (s *Session) rekey(ctx context.Context, id string, storage repositories.Storage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		payload, err := json.Marshal(s.user)
		if err == nil {
			err = storage.SetItem(ctx, StorageKey, string(payload))
		}
		if err != nil {
			s.logger.Error("failed to move session user",
				zap.String("session_id", id),
				zap.Error(err))
		}
	}
	s.removeStored(ctx)

	s.logger.Debug("session id rotated",
		zap.String("old_session_id", s.id),
		zap.String("session_id", id))
	s.id = id
	s.storage = storage
}

// removeStored deletes the storage key (must be called with lock held)
func (s *Session) removeStored(ctx context.Context) {
	if err := s.storage.RemoveItem(ctx, StorageKey); err != nil {
		s.logger.Error("failed to remove stored session user",
			zap.String("session_id", s.id),
			zap.Error(err))
	}
}

// User returns a copy of the current user, or nil when unauthenticated
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated reports whether a user is logged in
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Role returns the current user's role, RoleGuest when unauthenticated
func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.RoleOrGuest()
}
