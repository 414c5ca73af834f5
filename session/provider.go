package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/coe-portal/repositories"
	"github.com/upb/coe-portal/services"
	"go.uber.org/zap"
)

// Provider opens sessions over a SessionStore
type Provider struct {
	store    repositories.SessionStore
	accounts repositories.AccountDirectory
	logger   *zap.Logger
}

// NewProvider creates a new Provider
func NewProvider(store repositories.SessionStore, accounts repositories.AccountDirectory, logger *zap.Logger) *Provider {
	return &Provider{
		store:    store,
		accounts: accounts,
		logger:   logger,
	}
}

// NewID returns a fresh session id
func (p *Provider) NewID() string {
	return uuid.NewString()
}

// Open returns the session for id, restored from storage
func (p *Provider) Open(ctx context.Context, id string) (*Session, error) {
	s := New(id, p.accounts, p.store.Scope(id), p.logger)
	if err := s.Restore(ctx); err != nil {
		p.logger.Error("failed to restore session",
			zap.String("session_id", id),
			zap.Error(err))
		return nil, services.ErrSessionUnavailable.Wrap(err).WithDetail("session_id", id)
	}
	return s, nil
}

// RotateTo moves s to id, carrying its user over
func (p *Provider) RotateTo(ctx context.Context, s *Session, id string) {
	s.rekey(ctx, id, p.store.Scope(id))
}
