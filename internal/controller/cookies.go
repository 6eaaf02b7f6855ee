package controller

import (
	"net/http"
	"time"

	"github.com/cassiomorais/finance/internal/middleware"
	"github.com/cassiomorais/finance/internal/service"
)

const refreshCookie = "refreshToken"

// refreshCookiePath limits the refresh token to the endpoints that consume it.
const refreshCookiePath = "/api/v1/auth"

// CookieConfig controls the attributes of the credential cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (c CookieConfig) setTokens(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, c.cookie(middleware.AccessCookie, pair.AccessToken, "/", pair.AccessExpiresAt))
	http.SetCookie(w, c.cookie(refreshCookie, pair.RefreshToken, refreshCookiePath, pair.RefreshExpiresAt))
}

func (c CookieConfig) clearTokens(w http.ResponseWriter) {
	for _, ck := range []*http.Cookie{
		c.cookie(middleware.AccessCookie, "", "/", time.Unix(0, 0)),
		c.cookie(refreshCookie, "", refreshCookiePath, time.Unix(0, 0)),
	} {
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

func (c CookieConfig) cookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func refreshToken(r *http.Request) string {
	if ck, err := r.Cookie(refreshCookie); err == nil {
		return ck.Value
	}
	return ""
}
