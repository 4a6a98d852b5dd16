// Package catalog serves the catalog lookup pages backed by the REDECO and
// SEPOMEX endpoints.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"redeco/internal/condusef"
	"redeco/internal/session"
	"redeco/internal/web"
	dErrors "redeco/pkg/domain-errors"
	"redeco/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/api_mock.go -package=mocks

// API is the slice of the CONDUSEF client the catalog pages need.
type API interface {
	GetPublic(ctx context.Context, path string, query url.Values) (any, error)
	GetProtected(ctx context.Context, path, token string, query url.Values) (any, error)
}

// defaultProduct pre-fills the causes lookup, matching the most common
// product code used by the institution.
const defaultProduct = "028212721377"

// Handler renders one page per catalog.
type Handler struct {
	api     API
	manager *session.Manager
	render  *web.Renderer
	logger  *slog.Logger
}

func NewHandler(api API, manager *session.Manager, render *web.Renderer, logger *slog.Logger) *Handler {
	return &Handler{api: api, manager: manager, render: render, logger: logger}
}

// RegisterPublic mounts the catalogs that need no token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/catalogos/medios", h.Medios)
	r.Get("/catalogos/niveles-atencion", h.NivelesAtencion)
	r.Get("/catalogos/estados", h.Estados)
	r.Get("/catalogos/codigos-postales", h.CodigosPostales)
	r.Get("/catalogos/municipios", h.Municipios)
	r.Get("/catalogos/colonias", h.Colonias)
}

// RegisterProtected mounts the catalogs that require an access token. The
// router wraps these with the session gate.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/catalogos/productos", h.Productos)
	r.Get("/catalogos/causas", h.Causas)
}

type filterField struct {
	Name    string
	Label   string
	Value   string
	Options []web.Option
}

type filterData struct {
	Fields []filterField
}

type catalogData struct {
	Heading string
	Filter  *filterData
	Columns []string
	Rows    [][]string
}

func (h *Handler) Medios(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.GetPublic(r.Context(), "catalogos/medio-recepcion", nil)
	h.renderCatalog(w, r, "Medios de Recepción", nil,
		normalizedRows(resp, condusef.MediaListKeys), err)
}

func (h *Handler) NivelesAtencion(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.GetPublic(r.Context(), "catalogos/niveles-atencion", nil)
	h.renderCatalog(w, r, "Niveles de Atención", nil,
		normalizedRows(resp, condusef.LevelListKeys), err)
}

func (h *Handler) Estados(w http.ResponseWriter, r *http.Request) {
	resp, err := h.api.GetPublic(r.Context(), "sepomex/estados/", nil)
	h.renderCatalog(w, r, "Estados", nil,
		normalizedRows(resp, condusef.StateListKeys), err)
}

// CodigosPostales requires an estado_id; the state dropdown is always
// preloaded so the user can pick one.
func (h *Handler) CodigosPostales(w http.ResponseWriter, r *http.Request) {
	estadoID := r.URL.Query().Get("estado_id")
	filter := &filterData{Fields: []filterField{
		{Name: "estado_id", Label: "Entidad Federativa", Value: estadoID, Options: h.stateOptions(r.Context())},
	}}

	if estadoID == "" {
		h.renderCatalog(w, r, "Códigos Postales", filter, nil, nil)
		return
	}

	query := url.Values{"estado_id": {estadoID}}
	resp, err := h.api.GetPublic(r.Context(), "sepomex/codigos-postales/", query)
	h.renderCatalog(w, r, "Códigos Postales", filter,
		normalizedRows(resp, condusef.PostalCodeListKeys), err)
}

// Municipios requires estado_id and cp together.
func (h *Handler) Municipios(w http.ResponseWriter, r *http.Request) {
	estadoID := r.URL.Query().Get("estado_id")
	cp := r.URL.Query().Get("cp")
	filter := &filterData{Fields: []filterField{
		{Name: "estado_id", Label: "Entidad Federativa", Value: estadoID, Options: h.stateOptions(r.Context())},
		{Name: "cp", Label: "Código Postal", Value: cp},
	}}

	if estadoID == "" || cp == "" {
		h.renderCatalog(w, r, "Municipios", filter, nil, nil)
		return
	}

	query := url.Values{"estado_id": {estadoID}, "cp": {cp}}
	resp, err := h.api.GetPublic(r.Context(), "sepomex/municipios/", query)
	h.renderCatalog(w, r, "Municipios", filter,
		normalizedRows(resp, condusef.MunicipalityListKeys), err)
}

func (h *Handler) Colonias(w http.ResponseWriter, r *http.Request) {
	cp := r.URL.Query().Get("cp")
	filter := &filterData{Fields: []filterField{
		{Name: "cp", Label: "Código Postal", Value: cp},
	}}

	if cp == "" {
		h.renderCatalog(w, r, "Colonias", filter, nil, nil)
		return
	}

	resp, err := h.api.GetPublic(r.Context(), "sepomex/colonias/", url.Values{"cp": {cp}})
	h.renderCatalog(w, r, "Colonias", filter,
		normalizedRows(resp, condusef.NeighborhoodListKeys), err)
}

func (h *Handler) Productos(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	resp, err := h.api.GetProtected(r.Context(), "catalogos/products-list", sess.Token, nil)
	h.renderCatalog(w, r, "Productos", nil,
		normalizedRows(resp, condusef.ProductListKeys), err)
}

// Causas looks up the causes for a product code. When requested with the
// standard AJAX marker header it answers with the normalized JSON list
// instead of a rendered page, for the complaint form's dynamic dropdown.
func (h *Handler) Causas(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	product := r.URL.Query().Get("product")
	if product == "" {
		product = defaultProduct
	}

	resp, err := h.api.GetProtected(r.Context(), "catalogos/causas-list/", sess.Token,
		url.Values{"product": {product}})

	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		if err != nil {
			var remote *condusef.APIError
			if errors.As(err, &remote) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeRemoteAPI, remote.Message))
				return
			}
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, condusef.ExtractList(resp, condusef.CauseListKeys))
		return
	}

	filter := &filterData{Fields: []filterField{
		{Name: "product", Label: "Producto (clave)", Value: product},
	}}
	h.renderCatalog(w, r, "Causas", filter,
		normalizedRows(resp, condusef.CauseListKeys), err)
}

// stateOptions fetches the states list for dropdowns. Failures degrade to an
// empty dropdown; the page still renders.
func (h *Handler) stateOptions(ctx context.Context) []web.Option {
	resp, err := h.api.GetPublic(ctx, "sepomex/estados/", nil)
	if err != nil {
		h.logger.WarnContext(ctx, "states preload failed", "error", err)
		return nil
	}
	return StateOptions(resp)
}

// StateOptions converts the raw states response into dropdown options.
func StateOptions(resp any) []web.Option {
	items := condusef.ExtractList(resp, condusef.StateListKeys)
	options := make([]web.Option, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := stringValue(m, "id", "estado_id", "EstadosId", "clave")
		name := stringValue(m, "nombre", "name", "estado", "descripcion")
		if id == "" && name == "" {
			continue
		}
		if name == "" {
			name = id
		}
		options = append(options, web.Option{ID: id, Name: name})
	}
	return options
}

func stringValue(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return renderValue(v)
		}
	}
	return ""
}

// normalizedRows turns a catalog response into a column/row table. Columns
// come from the union of the item keys, sorted for a stable layout.
func normalizedRows(resp any, keys []string) *catalogData {
	if resp == nil {
		return nil
	}
	items := condusef.ExtractList(resp, keys)
	if len(items) == 0 {
		return &catalogData{}
	}

	columnSet := make(map[string]bool)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for k := range m {
			columnSet[k] = true
		}
	}

	if len(columnSet) == 0 {
		// Scalar lists render as a single column.
		data := &catalogData{Columns: []string{"Valor"}}
		for _, item := range items {
			data.Rows = append(data.Rows, []string{renderValue(item)})
		}
		return data
	}

	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	data := &catalogData{Columns: columns}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, present := m[col]; present {
				row[i] = renderValue(v)
			}
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

// renderValue formats a decoded JSON value for display. Whole numbers lose
// the float artifact introduced by encoding/json.
func renderValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return fmt.Sprintf("%d", int64(value))
		}
		return fmt.Sprintf("%g", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func (h *Handler) renderCatalog(w http.ResponseWriter, r *http.Request, heading string, filter *filterData, data *catalogData, err error) {
	if data == nil {
		data = &catalogData{}
	}
	data.Heading = heading
	data.Filter = filter

	page := web.BuildPage(r.Context(), h.manager, heading, data)
	if err != nil {
		page.Flashes = append(page.Flashes, session.Flash{Level: session.FlashError, Message: err.Error()})
	}
	h.render.Render(w, http.StatusOK, "catalog.html", page)
}
