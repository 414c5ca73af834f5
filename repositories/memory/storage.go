package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/upb/coe-portal/repositories"
)

// sessionEntry holds the items written by one session
type sessionEntry struct {
	id        string
	items     map[string]string
	touchedAt time.Time
	element   *list.Element // For LRU tracking
}

// isExpired checks if the session has been idle longer than ttl.
// A zero ttl never expires.
func (e *sessionEntry) isExpired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.touchedAt) > ttl
}

// SessionStore is an in-memory session storage backend bounded by an LRU.
// Evicting a session drops everything it stored, which logs it out.
// Thread-safe implementation using sync.Mutex
type SessionStore struct {
	mu        sync.Mutex
	entries   map[string]*sessionEntry
	lruList   *list.List    // front is most recently used
	maxSize   int           // Maximum number of sessions, 0 means unbounded
	idleTTL   time.Duration // Idle time after which a session is dropped, 0 means never
	now       func() time.Time
	evictions uint64
}

// NewSessionStore creates a SessionStore with the given bounds
func NewSessionStore(maxSize int, idleTTL time.Duration) *SessionStore {
	return NewSessionStoreWithClock(maxSize, idleTTL, time.Now)
}

// NewSessionStoreWithClock creates a SessionStore with a custom clock
func NewSessionStoreWithClock(maxSize int, idleTTL time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		lruList: list.New(),
		maxSize: maxSize,
		idleTTL: idleTTL,
		now:     now,
	}
}

var _ repositories.SessionStore = (*SessionStore)(nil)

// Scope returns the storage area for a session id
func (s *SessionStore) Scope(sessionID string) repositories.Storage {
	return &scopedStorage{store: s, sessionID: sessionID}
}

// Ping always succeeds for the in-memory store
func (s *SessionStore) Ping(context.Context) error {
	return nil
}

// Close drops every session
func (s *SessionStore) Close() error {
	s.Clear()
	return nil
}

// Clear removes all sessions from the store
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*sessionEntry)
	s.lruList.Init()
}

func (s *SessionStore) getItem(sessionID, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookup(sessionID)
	if entry == nil {
		return "", false
	}
	v, ok := entry.items[key]
	return v, ok
}

func (s *SessionStore) setItem(sessionID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookup(sessionID)
	if entry == nil {
		if s.maxSize > 0 && s.lruList.Len() >= s.maxSize {
			s.evictLRU()
		}
		entry = &sessionEntry{
			id:    sessionID,
			items: make(map[string]string),
		}
		entry.element = s.lruList.PushFront(sessionID)
		s.entries[sessionID] = entry
	}

	entry.items[key] = value
	entry.touchedAt = s.now()
}

func (s *SessionStore) removeItem(sessionID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookup(sessionID)
	if entry == nil {
		return
	}
	delete(entry.items, key)
	if len(entry.items) == 0 {
		s.removeEntry(sessionID)
	}
}

// lookup returns a live entry and marks it used (must be called with lock held)
func (s *SessionStore) lookup(sessionID string) *sessionEntry {
	entry, exists := s.entries[sessionID]
	if !exists {
		return nil
	}
	now := s.now()
	if entry.isExpired(now, s.idleTTL) {
		s.removeEntry(sessionID)
		return nil
	}
	entry.touchedAt = now
	s.lruList.MoveToFront(entry.element)
	return entry
}

// removeEntry removes a session from the store (must be called with lock held)
func (s *SessionStore) removeEntry(sessionID string) {
	if entry, exists := s.entries[sessionID]; exists {
		s.lruList.Remove(entry.element)
		delete(s.entries, sessionID)
	}
}

// evictLRU evicts the least recently used session (must be called with lock held)
func (s *SessionStore) evictLRU() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	s.removeEntry(back.Value.(string))
	s.evictions++
}

// CleanupExpired removes all idle sessions and returns how many were dropped
func (s *SessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := make([]string, 0)
	for id, entry := range s.entries {
		if entry.isExpired(now, s.idleTTL) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.removeEntry(id)
	}
	return len(expired)
}

// StartCleanupWorker periodically drops idle sessions until ctx is done
func (s *SessionStore) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-ctx.Done():
			return
		}
	}
}

// StoreStats represents session store statistics
type StoreStats struct {
	Sessions  int
	MaxSize   int
	Evictions uint64
}

// Stats returns store statistics
func (s *SessionStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreStats{
		Sessions:  s.lruList.Len(),
		MaxSize:   s.maxSize,
		Evictions: s.evictions,
	}
}

// scopedStorage is the Storage view of one session
type scopedStorage struct {
	store     *SessionStore
	sessionID string
}

func (st *scopedStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	v, ok := st.store.getItem(st.sessionID, key)
	return v, ok, nil
}

func (st *scopedStorage) SetItem(_ context.Context, key, value string) error {
	st.store.setItem(st.sessionID, key, value)
	return nil
}

func (st *scopedStorage) RemoveItem(_ context.Context, key string) error {
	st.store.removeItem(st.sessionID, key)
	return nil
}
