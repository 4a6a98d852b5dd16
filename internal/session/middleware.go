package session

import (
	"context"
	"net/http"
)

type ctxKey struct{}

// FromContext returns the session attached by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}

// WithSession ensures every page request has a session and attaches it to
// the request context.
func (m *Manager) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Ensure(r.Context(), w, r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "session init failed", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireToken gates protected pages. Requests without an access token get
// a flash message and a redirect to the login page.
func (m *Manager) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if !sess.Authenticated() {
			if sess != nil {
				_ = m.AddFlash(r.Context(), sess, FlashError,
					"Token no disponible. Genera un token desde la página principal.")
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
