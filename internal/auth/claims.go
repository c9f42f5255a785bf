package auth

import (
	"context"
	"slices"
)

// Claims represents the parsed token claims.
type Claims struct {
	Subject string   `json:"sub"`
	Roles   []string `json:"roles"`
	Scopes  []string `json:"scopes"`
}

// ContextKey is used for storing claims in a context.
type ContextKey string

const (
	ClaimsKey ContextKey = "claims"
)

// Role constants
const (
	RoleViewer  = "viewer"
	RoleService = "service"
)

// Scope constants
const (
	ScopeLocation  = "location"
	ScopeTelemetry = "telemetry"
)

var (
	validRoles  = []string{RoleViewer, RoleService}
	validScopes = []string{ScopeLocation, ScopeTelemetry}
)

// HasScopes reports whether the claims carry every required scope.
func (c *Claims) HasScopes(required ...string) bool {
	if c == nil {
		return false
	}
	for _, scope := range required {
		if !slices.Contains(c.Scopes, scope) {
			return false
		}
	}
	return true
}

// HasRole reports whether the claims carry any of the given roles. An empty
// list always matches.
func (c *Claims) HasRole(roles ...string) bool {
	if c == nil {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if slices.Contains(c.Roles, role) {
			return true
		}
	}
	return false
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// ClaimsFromContext returns the claims stored in ctx, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
