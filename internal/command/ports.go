package command

import (
	"context"
	"errors"

	"github.com/radio-control/cellinfo/internal/adapter"
	"github.com/radio-control/cellinfo/internal/audit"
	"github.com/radio-control/cellinfo/internal/cell"
	"github.com/radio-control/cellinfo/internal/platform"
	"github.com/radio-control/cellinfo/internal/telemetry"
)

// OrchestratorPort defines the minimal interface the API needs from the orchestrator.
type OrchestratorPort interface {
	GetCellInfo(ctx context.Context, method string) (*Result, error)
	Platforms() platform.List
}

// AuditLogger writes one record per call.
type AuditLogger interface {
	LogCall(ctx context.Context, e audit.Entry)
}

// Publisher receives call events.
type Publisher interface {
	Publish(e telemetry.Event)
}

// Result codes.
const (
	CodeOK               = "OK"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeError            = "ERROR"
	CodeEncodeError      = "ENCODE_ERROR"
)

var (
	// ErrPermissionDenied is returned when the capability gate fails.
	ErrPermissionDenied = adapter.ErrPermissionDenied

	// ErrNoAdapter is returned when no platform adapter is configured.
	ErrNoAdapter = platform.ErrNoPlatform

	// ErrEncode is returned when the records cannot be rendered.
	ErrEncode = cell.ErrEncode
)

// Code maps an orchestrator error to its result code.
func Code(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrEncode):
		return CodeEncodeError
	default:
		return CodeError
	}
}

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying a request identifier for the
// audit log.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the identifier stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
