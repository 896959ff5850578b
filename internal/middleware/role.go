package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/web"
)

// LoadingPage is rendered while a session cannot be resolved yet.
const LoadingPage = "loading.html"

// RequireRole guards JSON endpoints.  An unresolved session answers 503,
// no session 401 and a principal outside section 403.
func RequireRole(section auth.Section) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch d := auth.Gate(AuthMirror(c).Resolution(), section); d.State {
			case auth.StatePending:
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session unavailable, retry"})
			case auth.StateUnauthenticated:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			case auth.StateWrongRole:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireSection guards HTML pages with the gate: redirect when the
// principal does not belong to section, a loading page while pending.
func RequireSection(section auth.Section) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := auth.Gate(AuthMirror(c).Resolution(), section)
			switch d.Action {
			case auth.ActionLoading:
				c.Response().Header().Set("Retry-After", "2")
				return c.Render(http.StatusOK, LoadingPage, web.Page{Title: "Cargando"})
			case auth.ActionRedirect:
				return c.Redirect(http.StatusSeeOther, d.Location)
			}
			return next(c)
		}
	}
}

// RequireSignedIn guards JSON endpoints open to every signed-in
// principal, admin or reader.
func RequireSignedIn() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := AuthMirror(c).Resolution()
			switch {
			case res.Pending:
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session unavailable, retry"})
			case res.Principal.Kind == auth.Unauthenticated:
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
