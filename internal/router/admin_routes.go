package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/handler"
	"github.com/iliyamo/devocional/internal/middleware"
)

// RegisterAdmin registers the editor and account endpoints under
// /v1/admin.  Every route requires an admin principal.
func RegisterAdmin(e *echo.Echo, ch *handler.ContentHandler, uh *handler.UserHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/admin", middleware.RequireRole(auth.SectionAdmin), limit)

	g.PUT("/months/:month", ch.UpdateMonth)
	g.PUT("/months/:month/days/:day", ch.UpsertDevotional)
	g.GET("/months/:month/activities", ch.ListActivities)
	g.PUT("/months/:month/days/:day/activity", ch.UpsertActivity)

	g.GET("/users", uh.List)
	g.POST("/users", uh.Create)
	g.GET("/users/export.xlsx", uh.Export)
	g.DELETE("/users/:id", uh.Delete)
}
