// Package repository holds one repository per table plus the error
// taxonomy shared by all of them.  Driver errors are translated here so
// higher layers can branch with errors.Is/errors.As:
//
//	ErrNotFound      lookup matched no row
//	ErrDuplicate     unique or primary key violation
//	ErrEmailExists   duplicate identity email (wraps ErrDuplicate)
//	ErrTransient     connection loss or timeout; reads are retried
//	ErrForbidden     operation refused for this row (admin accounts)
//	ValidationError  field-level constraint violation
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/devocional/internal/database"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already exists")
	ErrEmailExists = fmt.Errorf("email %w", ErrDuplicate)
	ErrTransient   = errors.New("store temporarily unavailable")
	ErrForbidden   = errors.New("forbidden")
)

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Message }

// ValidationErrors collects every invalid field of one input.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when no field failed.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Fields maps field name to message; the first message per field wins.
func (v ValidationErrors) Fields() map[string]string {
	m := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

// FieldErrors extracts field messages from err, which may be a single
// ValidationError or a ValidationErrors.  ok is false for other errors.
func FieldErrors(err error) (fields map[string]string, ok bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many.Fields(), true
	}
	var one ValidationError
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}, true
	}
	return nil, false
}

// translate maps driver errors onto the taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case database.IsTransient(err):
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}
