package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redeco/internal/audit"
	"redeco/internal/clients/models"
	"redeco/internal/clients/service"
	"redeco/internal/clients/store"
	"redeco/internal/platform/logger"
	"redeco/internal/session"
	"redeco/internal/web"
)

type harness struct {
	handler *Handler
	service *service.Service
	manager *session.Manager
	store   *session.InMemory
	codec   *session.CookieCodec
	router  chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.New()

	sessStore := session.NewInMemory()
	codec := session.NewCookieCodec("test-secret", false)
	manager := session.NewManager(sessStore, codec, nil, time.Hour, log, nil)

	render, err := web.NewRenderer(log)
	require.NoError(t, err)

	svc := service.New(store.NewInMemory(), log, nil)
	h := NewHandler(svc, manager, render, audit.NewPublisher(audit.NewInMemoryStore()), log)

	router := chi.NewRouter()
	router.Use(manager.WithSession)
	h.Register(router)

	return &harness{
		handler: h,
		service: svc,
		manager: manager,
		store:   sessStore,
		codec:   codec,
		router:  router,
	}
}

func (h *harness) request(t *testing.T, method, target string, form url.Values) *http.Request {
	t.Helper()
	sess := &session.Session{
		ID:        uuid.New(),
		Token:     "tok-test",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, h.store.Save(context.Background(), sess))

	rec := httptest.NewRecorder()
	h.codec.Write(rec, sess.ID, sess.ExpiresAt)

	var req *http.Request
	if form == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func clientForm() url.Values {
	return url.Values{
		"nombre":        {"Juan Pérez"},
		"rfc":           {"PEPJ800101XXX"},
		"tipo_persona":  {"1"},
		"estado_id":     {"9"},
		"estado_nombre": {"Ciudad de México"},
		"codigo_postal": {"11550"},
		"sexo":          {"H"},
		"edad":          {"34"},
	}
}

func TestCreate_RedirectsToListWithRecord(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(h.request(t, http.MethodPost, "/clientes/nuevo", clientForm()))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes", rec.Result().Header.Get("Location"))

	clients, err := h.service.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "PEPJ800101XXX", clients[0].RFC)
}

func TestCreate_ValidationErrorReRendersForm(t *testing.T) {
	h := newHarness(t)

	form := clientForm()
	form.Set("codigo_postal", "1234")
	rec := h.serve(h.request(t, http.MethodPost, "/clientes/nuevo", form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "código postal")
	// The user's input survives the re-render.
	assert.Contains(t, rec.Body.String(), "PEPJ800101XXX")

	clients, err := h.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestCreate_DuplicateRFCReRendersWithConflict(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(h.request(t, http.MethodPost, "/clientes/nuevo", clientForm()))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = h.serve(h.request(t, http.MethodPost, "/clientes/nuevo", clientForm()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ya existe un cliente con ese RFC.")
}

func TestCreate_NonNumericAgeRejected(t *testing.T) {
	h := newHarness(t)

	form := clientForm()
	form.Set("edad", "treinta")
	rec := h.serve(h.request(t, http.MethodPost, "/clientes/nuevo", form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edad")
}

func TestList_ShowsClients(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Create(context.Background(), models.Client{
		Nombre:       "Acme SA de CV",
		RFC:          "ACM010101XX9",
		TipoPersona:  models.PersonaMoral,
		EstadoID:     9,
		EstadoNombre: "Ciudad de México",
		CodigoPostal: "11550",
	})
	require.NoError(t, err)

	rec := h.serve(h.request(t, http.MethodGet, "/clientes", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme SA de CV")
	assert.Contains(t, rec.Body.String(), "Moral")
}

func TestEditForm_PrefillsValues(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Create(context.Background(), models.Client{
		Nombre:       "Acme SA de CV",
		RFC:          "ACM010101XX9",
		TipoPersona:  models.PersonaMoral,
		EstadoID:     9,
		CodigoPostal: "11550",
	})
	require.NoError(t, err)

	rec := h.serve(h.request(t, http.MethodGet, "/clientes/"+created.ID.String()+"/editar", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACM010101XX9")
	assert.Contains(t, rec.Body.String(), "Editar cliente")
}

func TestEditForm_UnknownIDRedirectsToList(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(h.request(t, http.MethodGet, "/clientes/"+uuid.NewString()+"/editar", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes", rec.Result().Header.Get("Location"))
}

func TestUpdate_ChangesRecord(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Create(context.Background(), models.Client{
		Nombre:       "Acme SA de CV",
		RFC:          "ACM010101XX9",
		TipoPersona:  models.PersonaMoral,
		EstadoID:     9,
		CodigoPostal: "11550",
	})
	require.NoError(t, err)

	form := url.Values{
		"nombre":        {"Acme Renombrada"},
		"rfc":           {"ACM010101XX9"},
		"tipo_persona":  {"2"},
		"estado_id":     {"9"},
		"codigo_postal": {"11550"},
	}
	rec := h.serve(h.request(t, http.MethodPost, "/clientes/"+created.ID.String()+"/editar", form))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	updated, err := h.service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Renombrada", updated.Nombre)
}

func TestDelete_RemovesAndFlashes(t *testing.T) {
	h := newHarness(t)

	created, err := h.service.Create(context.Background(), models.Client{
		Nombre:       "Acme SA de CV",
		RFC:          "ACM010101XX9",
		TipoPersona:  models.PersonaMoral,
		EstadoID:     9,
		CodigoPostal: "11550",
	})
	require.NoError(t, err)

	rec := h.serve(h.request(t, http.MethodPost, "/clientes/"+created.ID.String()+"/eliminar", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	clients, err := h.service.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestDelete_UnknownIDStillRedirects(t *testing.T) {
	h := newHarness(t)

	rec := h.serve(h.request(t, http.MethodPost, "/clientes/"+uuid.NewString()+"/eliminar", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clientes", rec.Result().Header.Get("Location"))
}
