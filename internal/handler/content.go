package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/model"
	"github.com/iliyamo/devocional/internal/service"
)

// ContentHandler serves months, devotionals and activities.  Reads are
// open to any signed-in user; writes sit behind the admin gate and purge
// the reader cache.
type ContentHandler struct {
	Content *service.ContentService
	Cache   Purger
	Timeout time.Duration
}

func NewContentHandler(content *service.ContentService, cache Purger, timeout time.Duration) *ContentHandler {
	return &ContentHandler{Content: content, Cache: cache, Timeout: timeout}
}

type monthReq struct {
	Theme string `json:"theme" form:"theme" validate:"required"`
	Icon  string `json:"icon" form:"icon" validate:"required"`
}

type activityReq struct {
	DriveURL *string `json:"drive_url" form:"drive_url"`
}

// ListMonths returns the twelve months in order.
func (h *ContentHandler) ListMonths(c echo.Context) error {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	months, err := h.Content.ListMonths(ctx)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, months)
}

// ListDevotionals returns a month with its devotionals ordered by day.
func (h *ContentHandler) ListDevotionals(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	m, err := h.Content.GetMonth(ctx, month)
	if err != nil {
		return apiError(c, err)
	}
	list, err := h.Content.ListDevotionals(ctx, month)
	if err != nil {
		return apiError(c, err)
	}
	if list == nil {
		list = []model.Devotional{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"month":       m,
		"days":        h.Content.DaysInMonth(month),
		"devotionals": list,
	})
}

// GetDevotional returns one day, 404 when it has no content.
func (h *ContentHandler) GetDevotional(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	d, err := h.Content.GetDevotional(ctx, month, day)
	if err != nil {
		return apiError(c, err)
	}
	if d == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "este día todavía no tiene devocional"})
	}
	return c.JSON(http.StatusOK, d)
}

// GetActivity returns the configured activity url of a day, or null.
func (h *ContentHandler) GetActivity(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Content.GetActivity(ctx, month, day)
	if err != nil {
		return apiError(c, err)
	}
	var url *string
	if a != nil {
		url = &a.DriveURL
	}
	return c.JSON(http.StatusOK, echo.Map{"month_id": month, "day_number": day, "drive_url": url})
}

// UpdateMonth changes a month's theme and icon.
func (h *ContentHandler) UpdateMonth(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return apiError(c, err)
	}
	var req monthReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	if err := c.Validate(&req); err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	m, err := h.Content.UpdateMonth(ctx, actor(c), month, req.Theme, req.Icon)
	if err != nil {
		return apiError(c, err)
	}
	purge(ctx, h.Cache)
	return c.JSON(http.StatusOK, m)
}

// UpsertDevotional creates or replaces the content of a day.
func (h *ContentHandler) UpsertDevotional(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	var fields model.DevotionalFields
	if err := c.Bind(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	d, err := h.Content.UpsertDevotional(ctx, actor(c), month, day, fields)
	if err != nil {
		return apiError(c, err)
	}
	purge(ctx, h.Cache)
	return c.JSON(http.StatusOK, d)
}

// ListActivities returns the full day grid of a month for the editor.
func (h *ContentHandler) ListActivities(c echo.Context) error {
	month, err := intParam(c, "month")
	if err != nil {
		return apiError(c, err)
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	grid, err := h.Content.ListActivities(ctx, month)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, grid)
}

// UpsertActivity sets or clears the activity url of a day.
func (h *ContentHandler) UpsertActivity(c echo.Context) error {
	month, day, err := monthDay(c)
	if err != nil {
		return apiError(c, err)
	}
	var req activityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo inválido"})
	}
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()

	a, err := h.Content.UpsertActivity(ctx, actor(c), month, day, req.DriveURL)
	if err != nil {
		return apiError(c, err)
	}
	purge(ctx, h.Cache)
	return c.JSON(http.StatusOK, a)
}
