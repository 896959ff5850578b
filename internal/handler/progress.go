package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/service"
)

// ProgressHandler serves the signed-in reader's completion state.
type ProgressHandler struct {
	Progress *service.ProgressService
	Timeout  time.Duration
}

func NewProgressHandler(p *service.ProgressService, timeout time.Duration) *ProgressHandler {
	return &ProgressHandler{Progress: p, Timeout: timeout}
}

// toggleReq carries the state the client currently shows.  Toggling is
// relative to it, so a repeated request with the same value is
// idempotent.
type toggleReq struct {
	Completed bool `json:"completed" form:"completed"`
}

// CompletedDays lists the completed days of a month.
func (h *ProgressHandler) CompletedDays(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	days, err := h.Progress.CompletedDays(ctx, actor(c), month)
	if err != nil {
		return apiError(c, err)
	}
	if days == nil {
		days = []int{}
	}
	return c.JSON(http.StatusOK, echo.Map{"month_id": month, "completed_days": days})
}

// Get reports whether one day is completed.
func (h *ProgressHandler) Get(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	done, err := h.Progress.IsCompleted(ctx, actor(c), month, day)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"month_id": month, "day_number": day, "completed": done})
}

// Toggle flips completion of a day and returns the new state.
func (h *ProgressHandler) Toggle(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	var req toggleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	done, err := h.Progress.Toggle(ctx, actor(c), month, day, req.Completed)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"month_id": month, "day_number": day, "completed": done})
}
