// Package session holds the per-browser session: the REDECO access token,
// one-shot flash messages, and device metadata. Sessions exist before login
// so flashes have somewhere to live; the gate checks for a token, not for a
// session.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
)

// Flash is a one-shot message surfaced on the next rendered page.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashError   = "error"
)

// Session is the unit of state kept per browser.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token,omitempty"`
	Device    string    `json:"device,omitempty"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// DeviceName extracts a human-readable device display name from a User-Agent
// string, e.g. "Chrome on macOS".
func DeviceName(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		return browser
	}
	return fmt.Sprintf("%s on %s", browser, os)
}
