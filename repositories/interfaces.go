package repositories

import (
	"context"

	"github.com/upb/coe-portal/models"
)

// AccountDirectory is the mock account table standing in for an identity backend
type AccountDirectory interface {
	// FindByEmail looks up an account, ignoring case and surrounding space
	FindByEmail(ctx context.Context, email string) (*models.User, bool)

	// List returns every account ordered by email
	List(ctx context.Context) []*models.User
}

// Storage is the session-scoped key/value area a single browser session
// reads and writes. Values are opaque strings.
type Storage interface {
	// GetItem returns the stored value and whether the key was present
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem stores value under key, replacing any previous value
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// SessionStore hands out Storage scoped to one session id
type SessionStore interface {
	// Scope returns the storage area for a session id
	Scope(sessionID string) Storage

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the store
	Close() error
}
