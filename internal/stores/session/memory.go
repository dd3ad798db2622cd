package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a map-backed Store implementation used in tests
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

// NewInMemoryStore creates an empty in-memory session store
func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}
}

// Create creates a new session
func (s *InMemoryStore) Create(ctx context.Context, userID string) (*Session, error) {
	session := NewSession(userID, s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return session, nil
}

// Get retrieves a session by ID
func (s *InMemoryStore) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired() {
		_ = s.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Save persists the session state, bumps the turn count, and extends expiry
func (s *InMemoryStore) Save(ctx context.Context, session *Session) error {
	session.TurnCount++
	session.ExpiresAt = time.Now().Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return nil
}

// Delete removes a session by ID
func (s *InMemoryStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)

	return nil
}

// DeleteExpired removes all sessions past their expiry
func (s *InMemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, session := range s.sessions {
		if session.Expired() {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed, nil
}
