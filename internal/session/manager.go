package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"redeco/internal/platform/metrics"
	"redeco/internal/sentinel"
)

// Authenticator exchanges portal credentials for a REDECO access token.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// Manager ties the pieces together: cookie in, store lookup, token
// lifecycle. Handlers only ever talk to the manager.
type Manager struct {
	store   Store
	codec   *CookieCodec
	authn   Authenticator
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewManager builds a session manager. The metrics argument may be nil.
func NewManager(store Store, codec *CookieCodec, authn Authenticator, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		store:   store,
		codec:   codec,
		authn:   authn,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// Current returns the session referenced by the request cookie, or
// sentinel.ErrNotFound when the cookie is absent, invalid, or the session
// expired.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*Session, error) {
	id, ok := m.codec.Read(r)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.store.Find(ctx, id)
}

// Ensure returns the request's session, creating an anonymous one when none
// exists. Anonymous sessions carry flashes for pages rendered before login.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	sess, err := m.Current(ctx, r)
	if err == nil {
		return sess, nil
	}

	now := time.Now()
	sess = &Session{
		ID:        uuid.New(),
		Device:    DeviceName(r.UserAgent()),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.codec.Write(w, sess.ID, sess.ExpiresAt)
	return sess, nil
}

// Login exchanges credentials for a token and binds it to the session.
// A fresh expiry window starts at login.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, r *http.Request, username, password string) (*Session, error) {
	token, err := m.authn.Authenticate(ctx, username, password)
	if err != nil {
		if m.metrics != nil {
			m.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		m.logger.WarnContext(ctx, "login failed", "error", err)
		return nil, err
	}

	sess, err := m.Ensure(ctx, w, r)
	if err != nil {
		return nil, err
	}

	wasAuthenticated := sess.Authenticated()
	sess.Token = token
	sess.Device = DeviceName(r.UserAgent())
	sess.ExpiresAt = time.Now().Add(m.ttl)
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.codec.Write(w, sess.ID, sess.ExpiresAt)

	if m.metrics != nil {
		m.metrics.LoginsTotal.WithLabelValues("success").Inc()
		if !wasAuthenticated {
			m.metrics.ActiveSessions.Inc()
		}
	}
	m.logger.InfoContext(ctx, "login succeeded", "session_id", sess.ID, "device", sess.Device)
	return sess, nil
}

// Logout drops the session and clears the cookie. Logging out without a
// session is a no-op.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sess, err := m.Current(ctx, r)
	if err == nil {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return err
		}
		if m.metrics != nil && sess.Authenticated() {
			m.metrics.ActiveSessions.Dec()
		}
		m.logger.InfoContext(ctx, "logout", "session_id", sess.ID)
	}
	m.codec.Clear(w)
	return nil
}

// AddFlash queues a one-shot message on the session.
func (m *Manager) AddFlash(ctx context.Context, sess *Session, level, message string) error {
	sess.Flashes = append(sess.Flashes, Flash{Level: level, Message: message})
	return m.store.Save(ctx, sess)
}

// PopFlashes drains the session's queued messages.
func (m *Manager) PopFlashes(ctx context.Context, sess *Session) ([]Flash, error) {
	if len(sess.Flashes) == 0 {
		return nil, nil
	}
	flashes := sess.Flashes
	sess.Flashes = nil
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return flashes, nil
}
