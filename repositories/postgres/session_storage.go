package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/upb/coe-portal/repositories"
	"go.uber.org/zap"
)

// SessionStore implements repositories.SessionStore on the session_storage table
type SessionStore struct {
	db     *DB
	logger *zap.Logger
}

// NewSessionStore creates a new postgres-backed session store
func NewSessionStore(db *DB, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		db:     db,
		logger: logger,
	}
}

var _ repositories.SessionStore = (*SessionStore)(nil)

// Scope returns the storage area for a session id
func (s *SessionStore) Scope(sessionID string) repositories.Storage {
	return &scopedStorage{store: s, sessionID: sessionID}
}

// Ping checks database connectivity
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close closes the underlying pool
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// PurgeIdle deletes items not read or written since now-idle and returns how many rows went
func (s *SessionStore) PurgeIdle(ctx context.Context, idle time.Duration) (int64, error) {
	query := `DELETE FROM session_storage WHERE updated_at < $1`

	res, err := s.db.ExecContext(ctx, query, time.Now().UTC().Add(-idle))
	if err != nil {
		return 0, fmt.Errorf("failed to purge idle sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}

	if n > 0 {
		s.logger.Debug("purged idle session items", zap.Int64("rows", n))
	}
	return n, nil
}

// StartCleanupWorker purges idle sessions every interval until ctx is done
func (s *SessionStore) StartCleanupWorker(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.PurgeIdle(ctx, idle); err != nil {
				s.logger.Warn("session cleanup failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// getItem reads an item and refreshes its updated_at, which PurgeIdle treats
// as the last use
func (s *SessionStore) getItem(ctx context.Context, sessionID, key string) (string, bool, error) {
	query := `
		UPDATE session_storage
		SET updated_at = $3
		WHERE session_id = $1 AND item_key = $2
		RETURNING item_value
	`

	var value string
	err := s.db.QueryRowContext(ctx, query, sessionID, key, time.Now().UTC()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get session item: %w", err)
	}

	return value, true, nil
}

func (s *SessionStore) setItem(ctx context.Context, sessionID, key, value string) error {
	query := `
		INSERT INTO session_storage (session_id, item_key, item_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, item_key)
		DO UPDATE SET item_value = EXCLUDED.item_value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, sessionID, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set session item: %w", err)
	}

	s.logger.Debug("session item stored", zap.String("session_id", sessionID), zap.String("key", key))
	return nil
}

func (s *SessionStore) removeItem(ctx context.Context, sessionID, key string) error {
	query := `DELETE FROM session_storage WHERE session_id = $1 AND item_key = $2`

	if _, err := s.db.ExecContext(ctx, query, sessionID, key); err != nil {
		return fmt.Errorf("failed to remove session item: %w", err)
	}

	s.logger.Debug("session item removed", zap.String("session_id", sessionID), zap.String("key", key))
	return nil
}

// scopedStorage is the Storage view of one session
type scopedStorage struct {
	store     *SessionStore
	sessionID string
}

func (st *scopedStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return st.store.getItem(ctx, st.sessionID, key)
}

func (st *scopedStorage) SetItem(ctx context.Context, key, value string) error {
	return st.store.setItem(ctx, st.sessionID, key, value)
}

func (st *scopedStorage) RemoveItem(ctx context.Context, key string) error {
	return st.store.removeItem(ctx, st.sessionID, key)
}
