package sessions

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the session cookie delivered to browsers.
const CookieName = "iacms_session"

// ErrCookieTampered is returned when the cookie signature does not verify.
// A tampered id fails here, before any store lookup.
var ErrCookieTampered = errors.New("session cookie failed verification")

// CookieCodec signs session ids into cookies and verifies them back out.
// The cookie is HTTP-only, same-site lax and scoped to the whole site path so
// browser-origin requests carry it automatically.
type CookieCodec struct {
	codec  *securecookie.SecureCookie
	secure bool
	maxAge time.Duration
}

// NewCookieCodec creates a codec. hashKey signs the cookie value; a non-nil
// blockKey additionally encrypts it. secure should be true in production.
func NewCookieCodec(hashKey, blockKey []byte, secure bool, maxAge time.Duration) *CookieCodec {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(maxAge.Seconds()))
	return &CookieCodec{
		codec:  sc,
		secure: secure,
		maxAge: maxAge,
	}
}

// Write sets the signed session cookie on the response.
func (c *CookieCodec) Write(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.codec.Encode(CookieName, sessionID)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts and verifies the session id from the request cookie. A
// missing cookie returns ("", nil); a present-but-unverifiable cookie returns
// ErrCookieTampered.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", nil
	}

	var sessionID string
	if err := c.codec.Decode(CookieName, cookie.Value, &sessionID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCookieTampered, err)
	}
	return sessionID, nil
}

// Clear expires the session cookie on the client.
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
