package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/radio-control/cellinfo/internal/auth"
	"github.com/radio-control/cellinfo/internal/command"
)

func TestToRPCError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"permission denied", fmt.Errorf("gate: %w", command.ErrPermissionDenied), http.StatusForbidden, command.CodePermissionDenied},
		{"encode", command.ErrEncode, http.StatusInternalServerError, command.CodeEncodeError},
		{"no adapter", command.ErrNoAdapter, http.StatusInternalServerError, command.CodeError},
		{"bad request", ErrBadRequest, http.StatusBadRequest, CodeBadRequest},
		{"not implemented", ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable, CodeUnavailable},
		{"auth", &auth.Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Invalid token"}, http.StatusUnauthorized, CodeUnauthorized},
		{"rpc error", &RPCError{Code: CodeForbidden, Message: "no"}, http.StatusForbidden, CodeForbidden},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"echo method", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"body too large", echo.ErrStatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, CodeBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, command.CodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ToRPCError(tt.err)
			if status != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, status)
			}
			if body == nil || body.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %+v", tt.wantCode, body)
			}
			if body != nil && body.Message == "" {
				t.Error("Expected a message")
			}
		})
	}
}

func TestToRPCErrorNil(t *testing.T) {
	status, body := ToRPCError(nil)
	if status != http.StatusOK || body != nil {
		t.Errorf("Expected 200 and no body, got %d %+v", status, body)
	}
}
