package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/export"
	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/service"
)

// UserHandler serves account administration.
type UserHandler struct {
	Users   *service.UserService
	Timeout time.Duration
}

func NewUserHandler(u *service.UserService, timeout time.Duration) *UserHandler {
	return &UserHandler{Users: u, Timeout: timeout}
}

// createUserReq has no role field; accounts created over HTTP are always
// readers.
type createUserReq struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// List returns every account with its reading stats.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rows, err := h.Users.ListUsers(ctx)
	if err != nil {
		return apiError(c, err)
	}
	if rows == nil {
		rows = []model.UserRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Create adds a reader account.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	if err := c.Validate(&req); err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	p, err := h.Users.CreateUser(ctx, actor(c), service.NewUser{
		Email: req.Email, Username: req.Username, Password: req.Password,
	})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Delete removes a reader account.  Admin accounts answer 403.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := h.Users.DeleteUser(ctx, actor(c), c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export downloads the user list as an xlsx workbook.
func (h *UserHandler) Export(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	rows, err := h.Users.ListUsers(ctx)
	if err != nil {
		return apiError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteUsers(&buf, rows); err != nil {
		return apiError(c, err)
	}
	name := fmt.Sprintf("usuarios-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
