// Package router registers routes and the middleware each group needs.
// The session middleware runs globally (see cmd/server); groups here only
// add gates, rate limits and caching.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/handler"
	"github.com/iliyamo/devocional/internal/middleware"
)

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
}

// RegisterAuth registers the session endpoints.  Login gets its own
// smaller rate-limit bucket.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, loginLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, loginLimit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.RequireSignedIn())
}
