package web

import (
	"context"
	"errors"
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
	"redeco/internal/platform/logger"
	"redeco/internal/session"
)

type fakeAuthenticator struct {
	token string
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type webHarness struct {
	authn      *fakeAuthenticator
	manager    *session.Manager
	store      *session.InMemory
	codec      *session.CookieCodec
	auditStore *audit.InMemoryStore
	router     chi.Router
}

func newWebHarness(t *testing.T) *webHarness {
	t.Helper()
	log := logger.New()

	store := session.NewInMemory()
	codec := session.NewCookieCodec("test-secret", false)
	authn := &fakeAuthenticator{token: "tok-issued"}
	manager := session.NewManager(store, codec, authn, time.Hour, log, nil)

	render, err := NewRenderer(log)
	require.NoError(t, err)

	auditStore := audit.NewInMemoryStore()
	h := NewHandler(manager, render, audit.NewPublisher(auditStore), log)

	router := chi.NewRouter()
	router.Use(manager.WithSession)
	h.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(manager.RequireToken)
		r.Get("/", h.HomePage)
	})

	return &webHarness{
		authn:      authn,
		manager:    manager,
		store:      store,
		codec:      codec,
		auditStore: auditStore,
		router:     router,
	}
}

func (h *webHarness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *webHarness) authedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	sess := &session.Session{
		ID:        uuid.New(),
		Token:     "tok-test",
		Device:    "Chrome on Linux",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, h.store.Save(context.Background(), sess))

	rec := httptest.NewRecorder()
	h.codec.Write(rec, sess.ID, sess.ExpiresAt)

	req := httptest.NewRequest(method, target, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func loginRequest(credentials url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(credentials.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginPage_RendersForm(t *testing.T) {
	h := newWebHarness(t)

	rec := h.serve(httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Iniciar sesión")
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLoginSubmit_SuccessBindsTokenAndRedirects(t *testing.T) {
	h := newWebHarness(t)

	rec := h.serve(loginRequest(url.Values{
		"username": {"institucion"},
		"password": {"secreta"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Result().Header.Get("Location"))

	// The follow-up request carries the token and lands on the home page.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = h.serve(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token generado exitosamente.")

	events, err := h.auditStore.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLoginSucceeded, events[0].Action)
}

func TestLoginSubmit_FailureReRendersWithError(t *testing.T) {
	h := newWebHarness(t)
	h.authn.err = errors.New("Credenciales inválidas.")

	rec := h.serve(loginRequest(url.Values{
		"username": {"institucion"},
		"password": {"incorrecta"},
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciales inválidas.")
	// The username survives the re-render.
	assert.Contains(t, rec.Body.String(), "institucion")

	events, err := h.auditStore.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLoginFailed, events[0].Action)
}

func TestLogout_DropsSessionAndRedirects(t *testing.T) {
	h := newWebHarness(t)

	req := h.authedRequest(t, http.MethodGet, "/logout")
	rec := h.serve(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Result().Header.Get("Location"))

	// The old cookie no longer opens the home page.
	again := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range req.Cookies() {
		again.AddCookie(c)
	}
	rec = h.serve(again)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Result().Header.Get("Location"))
}

func TestHomePage_ShowsDevice(t *testing.T) {
	h := newWebHarness(t)

	rec := h.serve(h.authedRequest(t, http.MethodGet, "/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chrome on Linux")
}

func TestHomePage_ShowsRecentActivity(t *testing.T) {
	h := newWebHarness(t)

	require.NoError(t, h.auditStore.Append(context.Background(), audit.Event{
		ID:         uuid.New(),
		Action:     audit.ActionComplaintSubmitted,
		OccurredAt: time.Now(),
	}))

	rec := h.serve(h.authedRequest(t, http.MethodGet, "/"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Actividad reciente")
	assert.Contains(t, rec.Body.String(), "complaint_submitted")
}

func TestHomePage_WithoutTokenRedirectsToLogin(t *testing.T) {
	h := newWebHarness(t)

	rec := h.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Result().Header.Get("Location"))
}
