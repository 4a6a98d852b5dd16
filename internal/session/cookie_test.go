package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieFromRecorder(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := NewCookieCodec("test-secret", false)
	id := uuid.New()

	rec := httptest.NewRecorder()
	codec.Write(rec, id, time.Now().Add(time.Hour))

	cookie := cookieFromRecorder(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	got, ok := codec.Read(req)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestCookieCodec_TamperedSignatureRejected(t *testing.T) {
	codec := NewCookieCodec("test-secret", false)

	rec := httptest.NewRecorder()
	codec.Write(rec, uuid.New(), time.Now().Add(time.Hour))
	cookie := cookieFromRecorder(t, rec)

	// Swap the session ID while keeping the original signature.
	_, sig, _ := strings.Cut(cookie.Value, ".")
	cookie.Value = uuid.NewString() + "." + sig

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	_, ok := codec.Read(req)
	assert.False(t, ok)
}

func TestCookieCodec_WrongSecretRejected(t *testing.T) {
	writer := NewCookieCodec("secret-a", false)
	reader := NewCookieCodec("secret-b", false)

	rec := httptest.NewRecorder()
	writer.Write(rec, uuid.New(), time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFromRecorder(t, rec))

	_, ok := reader.Read(req)
	assert.False(t, ok)
}

func TestCookieCodec_MissingCookie(t *testing.T) {
	codec := NewCookieCodec("test-secret", false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := codec.Read(req)
	assert.False(t, ok)
}

func TestCookieCodec_MalformedValueRejected(t *testing.T) {
	codec := NewCookieCodec("test-secret", false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "no-signature-here"})

	_, ok := codec.Read(req)
	assert.False(t, ok)
}

func TestCookieCodec_ClearExpiresCookie(t *testing.T) {
	codec := NewCookieCodec("test-secret", false)

	rec := httptest.NewRecorder()
	codec.Clear(rec)

	cookie := cookieFromRecorder(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}
