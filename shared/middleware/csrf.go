package middleware

import (
	"net/http"

	"github.com/itchan-dev/strapikit/shared/csrf"
	"github.com/itchan-dev/strapikit/shared/logger"
)

// CSRF makes sure every browser holds a csrf token cookie and rejects
// unsafe requests that do not echo it in the csrf header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieToken string
			if c, err := r.Cookie(csrf.CookieName); err == nil {
				cookieToken = c.Value
			} else {
				token, err := csrf.GenerateToken()
				if err != nil {
					logger.Log.Error("failed to generate csrf token", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrf.CookieName,
					Value:    token,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
				})
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if !csrf.ValidateToken(cookieToken, r.Header.Get(csrf.HeaderName)) {
					logger.Log.Warn("csrf token validation failed", "path", r.URL.Path)
					http.Error(w, "Invalid CSRF token", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
