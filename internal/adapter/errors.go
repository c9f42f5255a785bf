package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Normalized platform errors.
var (
	ErrPermissionDenied = errors.New("PERMISSION_DENIED")
	ErrUnsupported      = errors.New("UNSUPPORTED")
	ErrUnavailable      = errors.New("UNAVAILABLE")
	ErrInternal         = errors.New("INTERNAL")
)

// Live callback error codes reported by platforms that follow the Android
// CellInfoCallback convention.
const (
	LiveErrorTimeout    = 1
	LiveErrorModemError = 2
)

// PlatformMap defines the error token mapping for a specific platform.
type PlatformMap struct {
	Denied      []string // Tokens that map to PERMISSION_DENIED
	Unsupported []string // Tokens that map to UNSUPPORTED
	Unavailable []string // Tokens that map to UNAVAILABLE
}

// PlatformErrorMappings contains the deterministic error mapping tables for
// all platforms. Unknown tokens map to INTERNAL; unknown platforms fall back
// to "generic".
var PlatformErrorMappings = map[string]PlatformMap{
	"android": {
		Denied: []string{
			"SECURITYEXCEPTION",
			"ACCESS_FINE_LOCATION",
			"PERMISSION",
		},
		Unsupported: []string{
			"NOSUCHMETHODERROR",
			"NOSUCHFIELDERROR",
			"UNSUPPORTEDOPERATIONEXCEPTION",
			"CLASSCASTEXCEPTION",
		},
		Unavailable: []string{
			"ILLEGALSTATEEXCEPTION",
			"RADIO_NOT_AVAILABLE",
			"MODEM",
			"TIMEOUT",
		},
	},
	"ios": {
		Denied: []string{
			"NOT AUTHORIZED",
			"PERMISSION",
		},
		Unsupported: []string{
			"UNRECOGNIZED SELECTOR",
			"NOT KEY VALUE CODING-COMPLIANT",
		},
		Unavailable: []string{
			"NO SERVICE",
			"NO SIM",
		},
	},
	"generic": {
		Denied: []string{
			"PERMISSION",
			"DENIED",
			"FORBIDDEN",
		},
		Unsupported: []string{
			"UNSUPPORTED",
			"NOT_SUPPORTED",
			"NOT IMPLEMENTED",
		},
		Unavailable: []string{
			"UNAVAILABLE",
			"OFFLINE",
			"TIMEOUT",
			"NOT_READY",
		},
	},
}

// PlatformError wraps a platform error with its normalized code.
type PlatformError struct {
	Code     error // Normalized code
	Original error // Platform error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%v (platform: %v)", e.Code, e.Original)
}

func (e *PlatformError) Unwrap() error {
	return e.Code
}

// NormalizePlatformError maps platform errors using the generic table.
func NormalizePlatformError(platformErr error) error {
	return NormalizePlatformErrorFor(platformErr, "generic")
}

// NormalizePlatformErrorFor maps platform errors using a platform's table.
func NormalizePlatformErrorFor(platformErr error, platformID string) error {
	if platformErr == nil {
		return nil
	}

	var already *PlatformError
	if errors.As(platformErr, &already) {
		return already
	}

	return &PlatformError{
		Code:     mapPlatformErrorToCode(platformErr.Error(), platformID),
		Original: platformErr,
	}
}

func mapPlatformErrorToCode(msg string, platformID string) error {
	platformMap, exists := PlatformErrorMappings[platformID]
	if !exists {
		platformMap = PlatformErrorMappings["generic"]
	}

	upperMsg := strings.ToUpper(msg)

	for _, token := range platformMap.Denied {
		if strings.Contains(upperMsg, token) {
			return ErrPermissionDenied
		}
	}
	for _, token := range platformMap.Unsupported {
		if strings.Contains(upperMsg, token) {
			return ErrUnsupported
		}
	}
	for _, token := range platformMap.Unavailable {
		if strings.Contains(upperMsg, token) {
			return ErrUnavailable
		}
	}

	return ErrInternal
}

// LiveError is a failure reported through CellCallback.OnError.
type LiveError struct {
	Code   int
	Detail error
}

func (e *LiveError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("live cell update failed (%s): %v", e.Reason(), e.Detail)
	}
	return fmt.Sprintf("live cell update failed (%s)", e.Reason())
}

func (e *LiveError) Unwrap() error {
	return e.Detail
}

// Reason returns a stable label for the callback error code.
func (e *LiveError) Reason() string {
	switch e.Code {
	case LiveErrorTimeout:
		return "timeout"
	case LiveErrorModemError:
		return "modem_error"
	default:
		return "unknown"
	}
}

// Reason labels any acquisition error for logs and metrics.
func Reason(err error) string {
	if err == nil {
		return "none"
	}

	var live *LiveError
	if errors.As(err, &live) {
		return live.Reason()
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}
