package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/radio-control/cellinfo/internal/auth"
	"github.com/radio-control/cellinfo/internal/command"
)

// Transport error codes. The call codes come from the command package.
const (
	CodeNotImplemented   = "NOT_IMPLEMENTED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeRateLimited      = "RATE_LIMITED"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnavailable      = "UNAVAILABLE"
)

// Transport-layer errors.
var (
	ErrBadRequest     = errors.New(CodeBadRequest)
	ErrNotImplemented = errors.New(CodeNotImplemented)
	ErrRateLimited    = errors.New(CodeRateLimited)
	ErrUnavailable    = errors.New(CodeUnavailable)
)

// RPCError is the structured error body shared by every endpoint.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToRPCError maps err to an HTTP status and a structured error. It is the
// only place errors are translated for callers.
func ToRPCError(err error) (int, *RPCError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return statusFor(rpcErr.Code), rpcErr
	}

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return authErr.Status, &RPCError{Code: authErr.Code, Message: authErr.Message}
	}

	switch {
	case errors.Is(err, command.ErrPermissionDenied):
		return http.StatusForbidden, &RPCError{Code: command.CodePermissionDenied, Message: "Location permission not granted"}
	case errors.Is(err, command.ErrEncode):
		return http.StatusInternalServerError, &RPCError{Code: command.CodeEncodeError, Message: "Failed to encode cell info"}
	case errors.Is(err, command.ErrNoAdapter):
		return http.StatusInternalServerError, &RPCError{Code: command.CodeError, Message: "No platform adapter configured"}
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, &RPCError{Code: CodeBadRequest, Message: "Malformed request"}
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented, &RPCError{Code: CodeNotImplemented, Message: "Method not implemented"}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, &RPCError{Code: CodeRateLimited, Message: "Too many requests, retry later"}
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, &RPCError{Code: CodeUnavailable, Message: "Service unavailable"}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound:
			return httpErr.Code, &RPCError{Code: CodeNotFound, Message: "Resource not found"}
		case http.StatusMethodNotAllowed:
			return httpErr.Code, &RPCError{Code: CodeMethodNotAllowed, Message: "Method not allowed"}
		case http.StatusRequestEntityTooLarge, http.StatusBadRequest:
			return httpErr.Code, &RPCError{Code: CodeBadRequest, Message: fmt.Sprint(httpErr.Message)}
		case http.StatusTooManyRequests:
			return httpErr.Code, &RPCError{Code: CodeRateLimited, Message: "Too many requests, retry later"}
		}
	}

	return http.StatusInternalServerError, &RPCError{Code: command.CodeError, Message: "Internal server error"}
}

func statusFor(code string) int {
	switch code {
	case command.CodePermissionDenied, CodeForbidden:
		return http.StatusForbidden
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
