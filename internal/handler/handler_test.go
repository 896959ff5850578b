package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/iliyamo/devocional/internal/repository"
	"github.com/iliyamo/devocional/internal/service"
)

func TestDescribe(t *testing.T) {
	var v repository.ValidationErrors
	v.Add("title", "muy corto")
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", v.Err(), http.StatusBadRequest},
		{"single field", repository.ValidationError{Field: "day", Message: "x"}, http.StatusBadRequest},
		{"duplicate email joined", errors.Join(repository.ValidationError{Field: "email", Message: "x"}, repository.ErrEmailExists), http.StatusBadRequest},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not found", fmt.Errorf("get: %w", repository.ErrNotFound), http.StatusNotFound},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"transient", repository.ErrTransient, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _, _ := describe(tt.err); status != tt.status {
				t.Errorf("describe() status = %d, want %d", status, tt.status)
			}
		})
	}
}

func TestDescribePartialFailure(t *testing.T) {
	pf := &service.PartialFailureError{Operation: "deleteUser", UserID: "u1", Completed: []string{"delete identity"}, Failed: "delete progress"}
	status, msg, _ := describe(fmt.Errorf("wrapped: %w", pf))
	if status != http.StatusInternalServerError || !strings.Contains(msg, "delete identity") || !strings.Contains(msg, "delete progress") {
		t.Errorf("describe() = %d %q", status, msg)
	}
}

func TestValidator(t *testing.T) {
	err := NewValidator().Validate(&createUserReq{Email: "a@b.c"})
	fields, ok := repository.FieldErrors(err)
	if !ok {
		t.Fatalf("Validate() error = %v, want field errors", err)
	}
	for _, f := range []string{"username", "password"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing %s in %v", f, fields)
		}
	}
	if err := NewValidator().Validate(&loginReq{Email: "a@b.c", Password: "x"}); err != nil {
		t.Errorf("Validate(complete) error = %v", err)
	}
}
