package web

import (
	"context"

	"redeco/internal/session"
)

// Option is a value/label pair for select inputs.
type Option struct {
	ID   string
	Name string
}

// BuildPage assembles the shared envelope for a rendered page: title,
// authentication state, and the session's pending flashes (drained here, so
// call once per response).
func BuildPage(ctx context.Context, m *session.Manager, title string, data any) Page {
	sess := session.FromContext(ctx)
	page := Page{
		Title:         title,
		Authenticated: sess.Authenticated(),
		Data:          data,
	}
	if sess != nil {
		if flashes, err := m.PopFlashes(ctx, sess); err == nil {
			page.Flashes = flashes
		}
	}
	return page
}
