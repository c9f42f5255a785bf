package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Error is an authentication or authorization failure. The API error
// handler renders it with its status and code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// Middleware handles authentication and authorization.
type Middleware struct {
	verifier TokenVerifier

	// Public paths skip authentication.
	public map[string]bool
}

// NewMiddleware creates auth middleware backed by verifier.
func NewMiddleware(verifier TokenVerifier, publicPaths ...string) *Middleware {
	m := &Middleware{verifier: verifier, public: make(map[string]bool)}
	for _, p := range publicPaths {
		m.public[p] = true
	}
	return m
}

// RequireAuth verifies the bearer token and stores its claims in the
// request context.
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if m.public[req.URL.Path] {
				return next(c)
			}

			token, err := extractBearerToken(req)
			if err != nil {
				return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
			}

			claims, err := m.verifier.VerifyToken(req.Context(), token)
			if err != nil {
				return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Invalid token"}
			}

			c.SetRequest(req.WithContext(WithClaims(req.Context(), claims)))
			return next(c)
		}
	}
}

// RequireScope rejects requests whose claims lack any of the scopes.
func (m *Middleware) RequireScope(scopes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c.Request().Context())
			if claims == nil {
				return &Error{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
			}
			if !claims.HasScopes(scopes...) {
				return &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "Insufficient permissions"}
			}
			return next(c)
		}
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("invalid Authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}
