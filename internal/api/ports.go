package api

import (
	"context"
	"net/http"

	"github.com/radio-control/cellinfo/internal/command"
	"github.com/radio-control/cellinfo/internal/telemetry"
)

// OrchestratorPort is what the API needs from the orchestrator.
type OrchestratorPort = command.OrchestratorPort

// TelemetryPort is what the API needs from the telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	Clients() int
}

// Compile-time assertions for port conformance
var _ OrchestratorPort = (*command.Orchestrator)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
