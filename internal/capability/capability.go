// Package capability decides whether a caller may read cell data.
//
// A gate is evaluated before any acquisition. When it fails, the platform is
// never touched.
package capability

import (
	"context"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/auth"
)

// Gate checks the capability required to read cell data.
type Gate interface {
	Check(ctx context.Context) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) bool

// Check implements Gate.
func (f GateFunc) Check(ctx context.Context) bool { return f(ctx) }

// Static returns a gate with a fixed answer.
func Static(granted bool) Gate {
	return GateFunc(func(context.Context) bool { return granted })
}

// PlatformGate asks the platform whether the location permission has been
// granted. Platforms without a runtime permission model always pass.
type PlatformGate struct {
	Source adapter.ITelephonyAdapter
}

// Check implements Gate.
func (g PlatformGate) Check(ctx context.Context) bool {
	checker, ok := g.Source.(adapter.PermissionChecker)
	if !ok {
		return true
	}
	return checker.LocationPermissionGranted(ctx)
}

// ScopeGate requires a token scope on the claims carried by ctx.
type ScopeGate struct {
	Scope string
}

// Check implements Gate.
func (g ScopeGate) Check(ctx context.Context) bool {
	scope := g.Scope
	if scope == "" {
		scope = auth.ScopeLocation
	}
	return auth.ClaimsFromContext(ctx).HasScopes(scope)
}

// All passes when every gate passes, evaluated in order. An empty set
// passes.
func All(gates ...Gate) Gate {
	return GateFunc(func(ctx context.Context) bool {
		for _, g := range gates {
			if g != nil && !g.Check(ctx) {
				return false
			}
		}
		return true
	})
}
