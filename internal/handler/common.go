// Package handler holds the echo handlers for the JSON API and the HTML
// pages.  Every handler bounds its store calls with the configured
// request timeout and maps service errors through one table.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/devocional/internal/logger"
	"github.com/iliyamo/devocional/internal/middleware"
	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/service"
)

const defaultTimeout = 5 * time.Second

// CustomValidator plugs validator/v10 into echo's c.Validate.
type CustomValidator struct {
	v *validator.Validate
}

func NewValidator() *CustomValidator { return &CustomValidator{v: validator.New()} }

// Validate checks the `validate` tags of i and returns the failures as
// repository.ValidationErrors keyed by the json name of each field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	var v repository.ValidationErrors
	for _, fe := range fieldErrs {
		v.Add(jsonName(fe.Field()), "campo obligatorio o con formato inválido")
	}
	return v.Err()
}

func jsonName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Purger drops cached reader content after a write.
type Purger interface {
	Purge(ctx context.Context) error
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(c.Request().Context(), d)
}

func purge(ctx context.Context, p Purger) {
	if p == nil {
		return
	}
	if err := p.Purge(ctx); err != nil {
		logger.Warn(ctx, "cache purge failed", "error", err)
	}
}

// intParam parses a path parameter.  A malformed value maps to a
// validation error on the same field name.
func intParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, repository.ValidationError{Field: name, Message: "debe ser un número"}
	}
	return n, nil
}

// monthDay reads the :month and :day parameters.
func monthDay(c echo.Context) (int, int, error) {
	month, err := intParam(c, "month")
	if err != nil {
		return 0, 0, err
	}
	day, err := intParam(c, "day")
	if err != nil {
		return 0, 0, err
	}
	return month, day, nil
}

// describe turns an error into a status, a user-facing message and the
// per-field messages of a validation failure.
func describe(err error) (int, string, map[string]string) {
	if fields, ok := repository.FieldErrors(err); ok {
		return http.StatusBadRequest, "revisa los campos marcados", fields
	}
	var pf *service.PartialFailureError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error(), nil
	case errors.As(err, &pf):
		return http.StatusInternalServerError, partialMessage(pf), nil
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "no encontrado", nil
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "operación no permitida", nil
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "ya existe", nil
	case errors.Is(err, repository.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "el servicio no está disponible, intenta de nuevo", nil
	}
	return http.StatusInternalServerError, "no se pudo completar la operación", nil
}

func partialMessage(pf *service.PartialFailureError) string {
	done := "ningún paso"
	if len(pf.Completed) > 0 {
		done = strings.Join(pf.Completed, ", ")
	}
	return fmt.Sprintf("La operación quedó incompleta (completado: %s; falló: %s). Un operador revisará la cuenta %s.",
		done, pf.Failed, pf.UserID)
}

// apiError writes err as JSON.  Unexpected errors are logged.
func apiError(c echo.Context, err error) error {
	status, msg, fields := describe(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request().Context(), "request failed", err, "path", c.Request().URL.Path)
	}
	body := echo.Map{"error": msg}
	if fields != nil {
		body["fields"] = fields
	}
	return c.JSON(status, body)
}

// Health checks the database behind the service.
func Health(check func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := withTimeout(c, 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

// actor is the user id recorded on writes.
func actor(c echo.Context) string { return middleware.PrincipalOf(c).UserID }
