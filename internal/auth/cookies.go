// AngelaMos | 2026
// cookies.go

package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/storefront/internal/config"
)

const transportHeader = "X-Auth-Transport"

type CookieWriter struct {
	cfg        config.CookieConfig
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCookieWriter(
	cfg config.CookieConfig,
	production bool,
	accessTTL, refreshTTL time.Duration,
) *CookieWriter {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &CookieWriter{
		cfg:        cfg,
		secure:     production,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *CookieWriter) AccessName() string {
	return c.cfg.AccessName
}

// WantsCookies reports whether the client looks like a browser. Clients
// can opt out with X-Auth-Transport: body.
func (c *CookieWriter) WantsCookies(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get(transportHeader), "body") {
		return false
	}
	return r.Header.Get("Origin") != "" || r.Header.Get("Cookie") != ""
}

func (c *CookieWriter) SetTokens(w http.ResponseWriter, pair *TokenPair) {
	c.SetAccess(w, pair.AccessToken)
	http.SetCookie(w, c.cookie(c.cfg.RefreshName, pair.RefreshToken, c.refreshTTL))
}

func (c *CookieWriter) SetAccess(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(c.cfg.AccessName, token, c.accessTTL))
}

func (c *CookieWriter) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.cfg.AccessName, c.cfg.RefreshName} {
		cookie := c.cookie(name, "", 0)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

// RefreshToken prefers the cookie and falls back to the body value.
func (c *CookieWriter) RefreshToken(r *http.Request, fromBody string) string {
	if cookie, err := r.Cookie(c.cfg.RefreshName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.TrimSpace(fromBody)
}

func (c *CookieWriter) cookie(name, value string, ttl time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if c.secure {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: sameSite,
	}
}
