package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"
)

// CSRF protects form posts with gorilla/csrf.  JSON API requests and
// Bearer-authenticated calls are exempt since a browser cannot forge
// either cross-site.  An empty key disables protection.
func CSRF(key []byte, secure bool) echo.MiddlewareFunc {
	if len(key) == 0 {
		return passThrough
	}
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "solicitud inválida, recarga la página", http.StatusForbidden)
		})),
	)
	return echo.WrapMiddleware(func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
				strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			guarded.ServeHTTP(w, r)
		})
	})
}

// CSRFToken returns the form token of the request, or "" when protection
// is off.
func CSRFToken(c echo.Context) string {
	return csrf.Token(c.Request())
}
