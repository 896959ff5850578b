package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/handler"
	"github.com/iliyamo/devocional/internal/middleware"
)

// RegisterReader registers the content reads shared by every signed-in
// user and the reader's own progress.  Shared content goes through the
// response cache; progress never does.
func RegisterReader(e *echo.Echo, ch *handler.ContentHandler, ph *handler.ProgressHandler, limit echo.MiddlewareFunc, cache *middleware.ResponseCache) {
	content := e.Group("/v1/months", middleware.RequireSignedIn(), limit, cache.Middleware())
	content.GET("", ch.ListMonths)
	content.GET("/:month/devotionals", ch.ListDevotionals)
	content.GET("/:month/days/:day", ch.GetDevotional)
	content.GET("/:month/days/:day/activity", ch.GetActivity)

	reader := []echo.MiddlewareFunc{middleware.RequireRole(auth.SectionReader), limit}
	e.GET("/v1/months/:month/progress", ph.CompletedDays, reader...)
	e.GET("/v1/months/:month/days/:day/progress", ph.Get, reader...)
	e.POST("/v1/months/:month/days/:day/progress", ph.Toggle, reader...)
}
