package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the signed session ID.
const CookieName = "redeco_session"

// CookieCodec writes and reads the session cookie. The value is the session
// UUID plus an HMAC-SHA256 signature so a client cannot forge another
// session's ID. The token itself never leaves the server side.
type CookieCodec struct {
	secret []byte
	secure bool
}

// NewCookieCodec builds a codec signing with the given secret. Secure
// controls the cookie's Secure attribute and should be true outside
// development.
func NewCookieCodec(secret string, secure bool) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), secure: secure}
}

func (c *CookieCodec) sign(value string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// Write sets the session cookie with the signed session ID.
func (c *CookieCodec) Write(w http.ResponseWriter, id uuid.UUID, expires time.Time) {
	value := id.String()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value + "." + c.sign(value),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts and verifies the session ID from the request cookie.
// Returns false for a missing, malformed, or tampered cookie.
func (c *CookieCodec) Read(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return uuid.Nil, false
	}

	value, sig, found := strings.Cut(cookie.Value, ".")
	if !found {
		return uuid.Nil, false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(value))) {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
