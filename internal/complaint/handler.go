package complaint

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"redeco/internal/audit"
	"redeco/internal/catalog"
	"redeco/internal/platform/metrics"
	"redeco/internal/session"
	"redeco/internal/web"
)

// Submitter is the slice of the REDECO client the complaint form needs.
type Submitter interface {
	SubmitComplaint(ctx context.Context, token string, payload map[string]any) (any, error)
	GetPublic(ctx context.Context, path string, query url.Values) (any, error)
}

// BulkSubmitter posts a batch of queries to the REUNE general endpoint.
type BulkSubmitter interface {
	SubmitBulkQuery(ctx context.Context, token string, body any) (any, error)
}

// Handler serves the complaint creation form and the REUNE bulk query form.
// Both sit behind the session gate.
type Handler struct {
	redeco  Submitter
	reune   BulkSubmitter
	manager *session.Manager
	render  *web.Renderer
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewHandler(redeco Submitter, reune BulkSubmitter, manager *session.Manager, render *web.Renderer, auditPub *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		redeco:  redeco,
		reune:   reune,
		manager: manager,
		render:  render,
		audit:   auditPub,
		metrics: m,
		logger:  logger,
	}
}

// Register mounts the form routes. The router wraps them with the gate.
func (h *Handler) Register(r chi.Router) {
	r.Get("/quejas/nueva", h.ComplaintForm)
	r.Post("/quejas/nueva", h.ComplaintSubmit)
	r.Get("/reune/consultas", h.BulkForm)
	r.Post("/reune/consultas", h.BulkSubmit)
}

type complaintFormData struct {
	Form   map[string]string
	States []web.Option
	Result string
}

type bulkFormData struct {
	Payload string
	Result  string
}

// samplePayload pre-fills the bulk form with one well-formed query.
const samplePayload = `[
  {
    "InstitucionClave": "Unión de Crédito Integral, S.A. de C.V.",
    "Sector": "Uniones de crédito",
    "ConsultasTrim": 3,
    "NumConsultas": 1,
    "ConsultasFolio": "250701",
    "ConsultasEstatusCon": 2,
    "ConsultasFecAten": "07/07/2025",
    "EstadosId": 9,
    "ConsultasFecRecepcion": "07/07/2025",
    "MediosId": 4,
    "Producto": "028212771385",
    "CausaId": "1211",
    "ConsultasCP": 11550,
    "ConsultasMpioId": 16,
    "ConsultasLocId": 9,
    "ConsultasColId": 2784,
    "ConsultascatnivelatenId": 1,
    "ConsultasPori": "NO"
  }
]`

// ComplaintForm renders an empty complaint form with the states preloaded.
func (h *Handler) ComplaintForm(w http.ResponseWriter, r *http.Request) {
	h.renderComplaintForm(w, r, map[string]string{}, nil)
}

// ComplaintSubmit validates the form, builds the payload, and posts it to
// the quejas endpoint. Success shows the API reply under a cleared form;
// validation and remote failures re-render with the user's input preserved.
func (h *Handler) ComplaintSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := make(map[string]string, len(requiredFields)+len(optionalFields))
	for _, name := range requiredFields {
		form[name] = r.PostFormValue(name)
	}
	for _, name := range optionalFields {
		form[name] = r.PostFormValue(name)
	}

	payload, err := BuildPayload(form)
	if err != nil {
		h.countComplaint("validation_error")
		h.renderComplaintForm(w, r, form, err)
		return
	}

	result, err := h.redeco.SubmitComplaint(ctx, sess.Token, payload)
	if err != nil {
		h.countComplaint("remote_error")
		h.logger.WarnContext(ctx, "complaint submission failed", "error", err)
		h.renderComplaintForm(w, r, form, err)
		return
	}

	h.countComplaint("success")
	_ = h.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionComplaintSubmitted,
		SessionID: sess.ID,
		Detail:    map[string]any{"folio": form["QuejasFolio"]},
	})

	pretty, merr := json.MarshalIndent(result, "", "  ")
	if merr != nil {
		pretty = []byte("{}")
	}
	data := complaintFormData{
		Form:   map[string]string{},
		States: h.stateOptions(ctx),
		Result: string(pretty),
	}
	page := web.BuildPage(ctx, h.manager, "Registrar queja", data)
	page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashSuccess, Message: "Queja registrada exitosamente."})
	h.render.Render(w, http.StatusOK, "complaint_form.html", page)
}

// BulkForm renders the REUNE bulk query form pre-filled with a sample batch.
func (h *Handler) BulkForm(w http.ResponseWriter, r *http.Request) {
	page := web.BuildPage(r.Context(), h.manager, "Consultas REUNE", bulkFormData{Payload: samplePayload})
	h.render.Render(w, http.StatusOK, "bulk_form.html", page)
}

// BulkSubmit parses the JSON batch and posts it to the REUNE general
// endpoint. The raw API response is shown back to the user.
func (h *Handler) BulkSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	raw := r.PostFormValue("payload")

	var body []any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		h.countBulk("validation_error")
		h.renderBulkForm(w, r, raw, "", "El cuerpo debe ser un arreglo JSON de consultas.")
		return
	}

	result, err := h.reune.SubmitBulkQuery(ctx, sess.Token, body)
	if err != nil {
		h.countBulk("remote_error")
		h.logger.WarnContext(ctx, "bulk query submission failed", "error", err)
		h.renderBulkForm(w, r, raw, "", err.Error())
		return
	}

	h.countBulk("success")
	_ = h.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionBulkQuerySubmitted,
		SessionID: sess.ID,
		Detail:    map[string]any{"count": len(body)},
	})

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		pretty = []byte("{}")
	}
	h.renderBulkForm(w, r, raw, string(pretty), "")
}

func (h *Handler) renderComplaintForm(w http.ResponseWriter, r *http.Request, form map[string]string, formErr error) {
	data := complaintFormData{Form: form, States: h.stateOptions(r.Context())}
	page := web.BuildPage(r.Context(), h.manager, "Registrar queja", data)
	if formErr != nil {
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: formErr.Error()})
	}
	h.render.Render(w, http.StatusOK, "complaint_form.html", page)
}

func (h *Handler) renderBulkForm(w http.ResponseWriter, r *http.Request, payload, result, errMsg string) {
	page := web.BuildPage(r.Context(), h.manager, "Consultas REUNE", bulkFormData{Payload: payload, Result: result})
	if errMsg != "" {
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: errMsg})
	}
	h.render.Render(w, http.StatusOK, "bulk_form.html", page)
}

func (h *Handler) stateOptions(ctx context.Context) []web.Option {
	resp, err := h.redeco.GetPublic(ctx, "sepomex/estados/", nil)
	if err != nil {
		h.logger.WarnContext(ctx, "states preload failed", "error", err)
		return nil
	}
	return catalog.StateOptions(resp)
}

func (h *Handler) countComplaint(outcome string) {
	if h.metrics != nil {
		h.metrics.ComplaintsSubmitted.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) countBulk(outcome string) {
	if h.metrics != nil {
		h.metrics.BulkQueriesSubmitted.WithLabelValues(outcome).Inc()
	}
}
