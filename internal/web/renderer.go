// Package web renders the server-side HTML pages of the portal.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"redeco/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the data envelope every template receives.
type Page struct {
	Title         string
	Authenticated bool
	Flashes       []session.Flash
	Data          any
}

// Renderer holds the parsed template set, one entry per page, all sharing
// the base layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var pageNames = []string{
	"home.html",
	"login.html",
	"catalog.html",
	"complaint_form.html",
	"bulk_form.html",
	"clients_list.html",
	"client_form.html",
}

// NewRenderer parses all embedded templates. Parsing happens once at
// startup, so a malformed template fails the boot instead of a request.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes the page with the given status code. Template failures after
// the first byte cannot be recovered, so the page executes into the response
// directly; parse-time validation keeps that safe.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown template", "name", name)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", page); err != nil {
		r.logger.Error("render template", "name", name, "error", err)
	}
}
