// Package handler serves the client registry pages.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"redeco/internal/audit"
	"redeco/internal/clients/models"
	"redeco/internal/clients/service"
	"redeco/internal/session"
	"redeco/internal/web"
	dErrors "redeco/pkg/domain-errors"
)

// Handler renders the registry list and forms. All routes sit behind the
// session gate.
type Handler struct {
	service *service.Service
	manager *session.Manager
	render  *web.Renderer
	audit   *audit.Publisher
	logger  *slog.Logger
}

func NewHandler(svc *service.Service, manager *session.Manager, render *web.Renderer, auditPub *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{service: svc, manager: manager, render: render, audit: auditPub, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/clientes", h.List)
	r.Get("/clientes/nuevo", h.NewForm)
	r.Post("/clientes/nuevo", h.Create)
	r.Get("/clientes/{id}/editar", h.EditForm)
	r.Post("/clientes/{id}/editar", h.Update)
	r.Post("/clientes/{id}/eliminar", h.Delete)
}

type listData struct {
	Clients []*models.Client
}

type formData struct {
	Heading string
	Action  string
	Form    map[string]string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context())
	page := web.BuildPage(r.Context(), h.manager, "Catálogo de clientes", listData{Clients: clients})
	if err != nil {
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: err.Error()})
	}
	h.render.Render(w, http.StatusOK, "clients_list.html", page)
}

func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "Registrar cliente", "/clientes/nuevo", map[string]string{}, nil)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, input, err := parseClientForm(r)
	if err == nil {
		_, err = h.service.Create(ctx, input)
	}
	if err != nil {
		h.renderForm(w, r, "Registrar cliente", "/clientes/nuevo", form, err)
		return
	}

	sess := session.FromContext(ctx)
	h.emit(r, audit.ActionClientCreated, map[string]any{"rfc": input.RFC})
	_ = h.manager.AddFlash(ctx, sess, session.FlashSuccess, "Cliente creado exitosamente.")
	http.Redirect(w, r, "/clientes", http.StatusSeeOther)
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		sess := session.FromContext(r.Context())
		_ = h.manager.AddFlash(r.Context(), sess, session.FlashError, err.Error())
		http.Redirect(w, r, "/clientes", http.StatusSeeOther)
		return
	}

	h.renderForm(w, r, "Editar cliente", "/clientes/"+id.String()+"/editar", clientToForm(client), nil)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	form, input, err := parseClientForm(r)
	if err == nil {
		_, err = h.service.Update(ctx, id, input)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			sess := session.FromContext(ctx)
			_ = h.manager.AddFlash(ctx, sess, session.FlashError, err.Error())
			http.Redirect(w, r, "/clientes", http.StatusSeeOther)
			return
		}
		h.renderForm(w, r, "Editar cliente", "/clientes/"+id.String()+"/editar", form, err)
		return
	}

	sess := session.FromContext(ctx)
	h.emit(r, audit.ActionClientUpdated, map[string]any{"client_id": id.String()})
	_ = h.manager.AddFlash(ctx, sess, session.FlashSuccess, "Cliente actualizado exitosamente.")
	http.Redirect(w, r, "/clientes", http.StatusSeeOther)
}

// Delete removes the record and reports the outcome through a flash either
// way.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		_ = h.manager.AddFlash(ctx, sess, session.FlashError, err.Error())
	} else {
		h.emit(r, audit.ActionClientDeleted, map[string]any{"client_id": id.String()})
		_ = h.manager.AddFlash(ctx, sess, session.FlashSuccess, "Cliente eliminado exitosamente.")
	}
	http.Redirect(w, r, "/clientes", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, heading, action string, form map[string]string, formErr error) {
	page := web.BuildPage(r.Context(), h.manager, heading, formData{Heading: heading, Action: action, Form: form})
	if formErr != nil {
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: formErr.Error()})
	}
	h.render.Render(w, http.StatusOK, "client_form.html", page)
}

func (h *Handler) emit(r *http.Request, action audit.Action, detail map[string]any) {
	var sessionID uuid.UUID
	if sess := session.FromContext(r.Context()); sess != nil {
		sessionID = sess.ID
	}
	_ = h.audit.Emit(r.Context(), audit.Event{Action: action, SessionID: sessionID, Detail: detail})
}

var formFields = []string{
	"nombre", "rfc", "tipo_persona", "estado_id", "estado_nombre",
	"codigo_postal", "municipio_id", "municipio_nombre", "colonia_id",
	"colonia_nombre", "localidad", "sexo", "edad",
}

// parseClientForm converts raw form input into a registry record. The raw
// values come back alongside the record so a failed submission re-renders
// with the user's input intact.
func parseClientForm(r *http.Request) (map[string]string, models.Client, error) {
	if err := r.ParseForm(); err != nil {
		return map[string]string{}, models.Client{}, dErrors.New(dErrors.CodeBadRequest, "Formulario inválido.")
	}

	form := make(map[string]string, len(formFields))
	for _, name := range formFields {
		form[name] = strings.TrimSpace(r.PostFormValue(name))
	}

	tipoPersona, err := requiredInt(form["tipo_persona"], "El tipo de persona debe ser numérico.")
	if err != nil {
		return form, models.Client{}, err
	}
	estadoID, err := requiredInt(form["estado_id"], "La entidad federativa debe ser numérica.")
	if err != nil {
		return form, models.Client{}, err
	}
	municipioID, err := optionalInt(form["municipio_id"], "El municipio debe ser numérico.")
	if err != nil {
		return form, models.Client{}, err
	}
	coloniaID, err := optionalInt(form["colonia_id"], "La colonia debe ser numérica.")
	if err != nil {
		return form, models.Client{}, err
	}
	edad, err := optionalInt(form["edad"], "La edad debe ser numérica.")
	if err != nil {
		return form, models.Client{}, err
	}

	input := models.Client{
		Nombre:          form["nombre"],
		RFC:             form["rfc"],
		TipoPersona:     tipoPersona,
		EstadoID:        estadoID,
		EstadoNombre:    form["estado_nombre"],
		CodigoPostal:    form["codigo_postal"],
		MunicipioID:     municipioID,
		MunicipioNombre: form["municipio_nombre"],
		ColoniaID:       coloniaID,
		ColoniaNombre:   form["colonia_nombre"],
		Localidad:       form["localidad"],
		Sexo:            form["sexo"],
		Edad:            edad,
	}
	return form, input, nil
}

func requiredInt(value, message string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, message)
	}
	return n, nil
}

func optionalInt(value, message string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, message)
	}
	return &n, nil
}

func clientToForm(c *models.Client) map[string]string {
	form := map[string]string{
		"nombre":           c.Nombre,
		"rfc":              c.RFC,
		"tipo_persona":     strconv.Itoa(c.TipoPersona),
		"estado_id":        strconv.Itoa(c.EstadoID),
		"estado_nombre":    c.EstadoNombre,
		"codigo_postal":    c.CodigoPostal,
		"municipio_nombre": c.MunicipioNombre,
		"colonia_nombre":   c.ColoniaNombre,
		"localidad":        c.Localidad,
		"sexo":             c.Sexo,
	}
	if c.MunicipioID != nil {
		form["municipio_id"] = strconv.Itoa(*c.MunicipioID)
	}
	if c.ColoniaID != nil {
		form["colonia_id"] = strconv.Itoa(*c.ColoniaID)
	}
	if c.Edad != nil {
		form["edad"] = strconv.Itoa(*c.Edad)
	}
	return form
}
