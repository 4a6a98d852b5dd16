package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"redeco/internal/sentinel"
)

// InMemory stores sessions in memory. Used in tests and when no Redis URL is
// configured.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewInMemory creates an in-memory session store.
func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[uuid.UUID]*Session)}
}

// Save persists the session, overwriting any previous state.
func (s *InMemory) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

// Find retrieves a live session. Expired sessions are dropped and reported
// as not found, matching the Redis store's TTL behavior.
func (s *InMemory) Find(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, sentinel.ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

// Delete removes the session if present.
func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
