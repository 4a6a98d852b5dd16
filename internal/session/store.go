package session

import (
	"context"

	"github.com/google/uuid"
)

// Store persists sessions. Implementations return sentinel.ErrNotFound for
// missing or expired sessions so the manager can treat both the same way.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
