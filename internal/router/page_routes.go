package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/auth"
	"github.com/iliyamo/devocional/internal/handler"
	"github.com/iliyamo/devocional/internal/middleware"
)

// RegisterPages registers the HTML site.  Section gates redirect instead
// of answering 401/403.
func RegisterPages(e *echo.Echo, p *handler.PageHandler, loginLimit echo.MiddlewareFunc) {
	e.GET("/", p.Login)
	e.POST("/", p.LoginSubmit, loginLimit)
	e.GET("/logout", p.Logout)

	admin := e.Group("/admin", middleware.RequireSection(auth.SectionAdmin))
	admin.GET("", p.AdminMonths)
	admin.GET("/users", p.AdminUsers)
	admin.POST("/users", p.AdminUserCreate)
	admin.POST("/users/:id/delete", p.AdminUserDelete)
	admin.GET("/activities", p.AdminActivities)
	admin.POST("/activities", p.AdminActivitySave)
	admin.GET("/:month", p.AdminMonth)
	admin.POST("/:month", p.AdminMonthSave)
	admin.GET("/:month/:day", p.AdminDay)
	admin.POST("/:month/:day", p.AdminDaySave)

	reader := e.Group("/dashboard", middleware.RequireSection(auth.SectionReader))
	reader.GET("", p.Dashboard)
	reader.GET("/:month", p.ReaderMonth)
	reader.GET("/:month/:day", p.ReaderDay)
	reader.POST("/:month/:day/toggle", p.ReaderToggle)
}
