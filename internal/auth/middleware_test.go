package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier map[string]*Claims

func (s staticVerifier) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, ErrInvalidToken
}

var testTokens = staticVerifier{
	"viewer-token":    {Subject: "app-1", Roles: []string{RoleViewer}, Scopes: []string{ScopeLocation}},
	"telemetry-token": {Subject: "app-2", Roles: []string{RoleService}, Scopes: []string{ScopeTelemetry}},
}

func serve(t *testing.T, m *Middleware, path, header string, scopes ...string) (*Claims, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Claims
	h := func(c echo.Context) error {
		seen = ClaimsFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}
	chain := m.RequireAuth()(m.RequireScope(scopes...)(h))
	if len(scopes) == 0 {
		chain = m.RequireAuth()(h)
	}
	err := chain(c)
	return seen, err
}

func TestRequireAuth(t *testing.T) {
	m := NewMiddleware(testTokens, "/api/v1/health")

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid token", "/api/v1/cells", "Bearer viewer-token", 0},
		{"missing header", "/api/v1/cells", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/v1/cells", "Basic dXNlcg==", http.StatusUnauthorized},
		{"empty token", "/api/v1/cells", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "/api/v1/cells", "Bearer nope", http.StatusUnauthorized},
		{"public path", "/api/v1/health", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(t, m, tt.path, tt.header)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			var authErr *Error
			require.True(t, errors.As(err, &authErr), "expected *Error, got %v", err)
			assert.Equal(t, tt.wantStatus, authErr.Status)
			assert.Equal(t, "UNAUTHORIZED", authErr.Code)
		})
	}
}

func TestRequireAuthStoresClaims(t *testing.T) {
	m := NewMiddleware(testTokens)

	claims, err := serve(t, m, "/api/v1/cells", "Bearer viewer-token")
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "app-1", claims.Subject)
}

func TestRequireScope(t *testing.T) {
	m := NewMiddleware(testTokens)

	_, err := serve(t, m, "/api/v1/telemetry", "Bearer telemetry-token", ScopeTelemetry)
	assert.NoError(t, err)

	_, err = serve(t, m, "/api/v1/telemetry", "Bearer viewer-token", ScopeTelemetry)
	var authErr *Error
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusForbidden, authErr.Status)
	assert.Equal(t, "FORBIDDEN", authErr.Code)
}

func TestClaimsHelpers(t *testing.T) {
	var nilClaims *Claims
	assert.False(t, nilClaims.HasScopes(ScopeLocation))
	assert.False(t, nilClaims.HasRole())

	c := &Claims{Roles: []string{RoleViewer}, Scopes: []string{ScopeLocation}}
	assert.True(t, c.HasScopes())
	assert.True(t, c.HasScopes(ScopeLocation))
	assert.False(t, c.HasScopes(ScopeLocation, ScopeTelemetry))
	assert.True(t, c.HasRole(RoleService, RoleViewer))
	assert.False(t, c.HasRole(RoleService))

	ctx := WithClaims(context.Background(), c)
	assert.Same(t, c, ClaimsFromContext(ctx))
	assert.Nil(t, ClaimsFromContext(context.Background()))
}
