package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mpetrov/streamtube/internal/models"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

type CookieConfig struct {
	// Secure is set in production so token cookies travel over TLS only
	Secure bool
}

// setTokenCookies puts both tokens into HttpOnly SameSite=Strict cookies.
// Values are echoed in the response body as well, cookies are for browser
// clients that can't touch them from scripts.
func setTokenCookies(w http.ResponseWriter, pair models.TokenPair, cfg CookieConfig) {
	set := func(name string, token models.IssuedToken) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    token.Value,
			Path:     "/",
			MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}

	set(accessCookieName, pair.Access)
	set(refreshCookieName, pair.Refresh)
}

func clearTokenCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// refreshFromRequest reads the refresh token from the cookie or, for
// non-browser clients, from the request body
func refreshFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return body.RefreshToken
	}

	return ""
}
