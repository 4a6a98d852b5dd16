package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"redeco/internal/audit"
	"redeco/internal/session"
)

// Handler serves the landing, login, and logout pages.
type Handler struct {
	manager *session.Manager
	render  *Renderer
	audit   *audit.Publisher
	logger  *slog.Logger
}

func NewHandler(manager *session.Manager, render *Renderer, auditPub *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, render: render, audit: auditPub, logger: logger}
}

// Register mounts the auth routes. The home page is mounted by the router
// behind the token gate.
func (h *Handler) Register(r chi.Router) {
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.LoginSubmit)
	r.Get("/logout", h.Logout)
}

type loginData struct {
	Username string
}

type homeData struct {
	Device string
	Recent []audit.Event
}

// HomePage renders the protected landing page with the latest audit trail
// entries. The page still renders when the lookup fails.
func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	recent, err := h.audit.ListRecent(r.Context(), 5)
	if err != nil {
		h.logger.WarnContext(r.Context(), "recent activity lookup failed", "error", err)
	}

	page := BuildPage(r.Context(), h.manager, "Inicio", homeData{Device: sess.Device, Recent: recent})
	h.render.Render(w, http.StatusOK, "home.html", page)
}

// LoginPage renders the credential form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	page := BuildPage(r.Context(), h.manager, "Iniciar sesión", loginData{})
	h.render.Render(w, http.StatusOK, "login.html", page)
}

// LoginSubmit exchanges the submitted credentials for a token. Success
// redirects to the landing page; failure re-renders the form with the error
// message and the username preserved.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sess, err := h.manager.Login(ctx, w, r, username, password)
	if err != nil {
		h.emit(r, audit.ActionLoginFailed, map[string]any{"username": username})
		page := BuildPage(ctx, h.manager, "Iniciar sesión", loginData{Username: username})
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: err.Error()})
		h.render.Render(w, http.StatusOK, "login.html", page)
		return
	}

	_ = h.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionLoginSucceeded,
		SessionID: sess.ID,
		Detail:    map[string]any{"username": username, "device": sess.Device},
	})
	_ = h.manager.AddFlash(ctx, sess, session.FlashSuccess, "Token generado exitosamente.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session and returns to the login page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.emit(r, audit.ActionLogout, nil)
	if err := h.manager.Logout(r.Context(), w, r); err != nil {
		h.logger.ErrorContext(r.Context(), "logout failed", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) emit(r *http.Request, action audit.Action, detail map[string]any) {
	var sessionID uuid.UUID
	if sess := session.FromContext(r.Context()); sess != nil {
		sessionID = sess.ID
	}
	_ = h.audit.Emit(r.Context(), audit.Event{Action: action, SessionID: sessionID, Detail: detail})
}
