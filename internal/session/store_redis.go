package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"redeco/internal/sentinel"
)

const (
	sessionKeyPrefix = "session:"

	// defaultSessionTTL is the fallback TTL when session expiry cannot be
	// determined from the record itself.
	defaultSessionTTL = 12 * time.Hour
)

// sessionJSON is the JSON-serializable representation of a Session.
// We use explicit JSON tags to control serialization format.
type sessionJSON struct {
	ID        string  `json:"id"`
	Token     string  `json:"token,omitempty"`
	Device    string  `json:"device,omitempty"`
	Flashes   []Flash `json:"flashes,omitempty"`
	CreatedAt int64   `json:"created_at"` // Unix nano
	ExpiresAt int64   `json:"expires_at"` // Unix nano
}

func sessionToJSON(s *Session) *sessionJSON {
	return &sessionJSON{
		ID:        s.ID.String(),
		Token:     s.Token,
		Device:    s.Device,
		Flashes:   s.Flashes,
		CreatedAt: s.CreatedAt.UnixNano(),
		ExpiresAt: s.ExpiresAt.UnixNano(),
	}
}

func sessionFromJSON(j *sessionJSON) (*Session, error) {
	sessionID, err := uuid.Parse(j.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	return &Session{
		ID:        sessionID,
		Token:     j.Token,
		Device:    j.Device,
		Flashes:   j.Flashes,
		CreatedAt: time.Unix(0, j.CreatedAt),
		ExpiresAt: time.Unix(0, j.ExpiresAt),
	}, nil
}

// RedisStore persists sessions in Redis. This is the production
// implementation; TTLs track the session expiry so stale records clean
// themselves up.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed session store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

// Save persists the session with a TTL derived from its expiry.
// Saves are last-write-wins; concurrent tabs sharing a session simply
// overwrite each other's token.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}

	data, err := json.Marshal(sessionToJSON(sess))
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	if err := s.client.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find retrieves a session by ID. Expired keys are gone from Redis already,
// so a miss covers both unknown and expired sessions.
func (s *RedisStore) Find(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	var j sessionJSON
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sessionFromJSON(&j)
}

// Delete removes the session key. Deleting an absent session is not an error.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
