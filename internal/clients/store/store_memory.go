package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"redeco/internal/clients/models"
	"redeco/internal/sentinel"
)

// InMemory keeps registry records in memory with an RFC index mirroring the
// database unique constraint. Used in tests and when no DATABASE_URL is set.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.Client
	rfcIdx map[string]uuid.UUID
}

// NewInMemory creates an in-memory registry store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[uuid.UUID]*models.Client),
		rfcIdx: make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.rfcIdx[c.RFC]; taken {
		return sentinel.ErrDuplicate
	}
	copied := *c
	s.byID[c.ID] = &copied
	s.rfcIdx[c.RFC] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *InMemory) FindByRFC(_ context.Context, rfc string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.rfcIdx[rfc]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

// List returns all records, most-recently-created first.
func (s *InMemory) List(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*models.Client, 0, len(s.byID))
	for _, c := range s.byID {
		copied := *c
		clients = append(clients, &copied)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].CreatedAt.After(clients[j].CreatedAt)
	})
	return clients, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.rfcIdx[c.RFC]; taken && owner != c.ID {
		return sentinel.ErrDuplicate
	}

	delete(s.rfcIdx, existing.RFC)
	copied := *c
	copied.CreatedAt = existing.CreatedAt
	copied.UpdatedAt = time.Now()
	s.byID[c.ID] = &copied
	s.rfcIdx[c.RFC] = c.ID
	*c = copied
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rfcIdx, c.RFC)
	delete(s.byID, id)
	return nil
}
