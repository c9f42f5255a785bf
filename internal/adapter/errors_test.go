package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNormalizePlatformError(t *testing.T) {
	tests := []struct {
		name         string
		platformErr  error
		platformID   string
		expectedCode error
		expectedMsg  string
	}{
		{
			name:         "nil error returns nil",
			platformErr:  nil,
			platformID:   "android",
			expectedCode: nil,
		},
		{
			name:         "unknown error maps to INTERNAL",
			platformErr:  errors.New("NullPointerException"),
			platformID:   "android",
			expectedCode: ErrInternal,
			expectedMsg:  "INTERNAL (platform: NullPointerException)",
		},
		{
			name:         "android security exception maps to PERMISSION_DENIED",
			platformErr:  errors.New("java.lang.SecurityException: ACCESS_FINE_LOCATION"),
			platformID:   "android",
			expectedCode: ErrPermissionDenied,
		},
		{
			name:         "android missing method maps to UNSUPPORTED",
			platformErr:  errors.New("NoSuchMethodError: getCellIdentity"),
			platformID:   "android",
			expectedCode: ErrUnsupported,
		},
		{
			name:         "android radio off maps to UNAVAILABLE",
			platformErr:  errors.New("RADIO_NOT_AVAILABLE"),
			platformID:   "android",
			expectedCode: ErrUnavailable,
		},
		{
			name:         "ios unrecognized selector maps to UNSUPPORTED",
			platformErr:  errors.New("-[CTTelephonyNetworkInfo foo]: unrecognized selector sent to instance"),
			platformID:   "ios",
			expectedCode: ErrUnsupported,
		},
		{
			name:         "ios not authorized maps to PERMISSION_DENIED",
			platformErr:  errors.New("Location services not authorized"),
			platformID:   "ios",
			expectedCode: ErrPermissionDenied,
		},
		{
			name:         "unknown platform falls back to generic",
			platformErr:  errors.New("device offline"),
			platformID:   "tizen",
			expectedCode: ErrUnavailable,
		},
		{
			name:         "generic denied",
			platformErr:  errors.New("forbidden by policy"),
			platformID:   "generic",
			expectedCode: ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizePlatformErrorFor(tt.platformErr, tt.platformID)

			if tt.expectedCode == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}

			if !errors.Is(result, tt.expectedCode) {
				t.Errorf("Expected error code %v, got %v", tt.expectedCode, result)
			}

			var platformErr *PlatformError
			if !errors.As(result, &platformErr) {
				t.Fatalf("Expected *PlatformError, got %T", result)
			}
			if platformErr.Original != tt.platformErr {
				t.Errorf("Expected original error to be preserved")
			}
			if tt.expectedMsg != "" && result.Error() != tt.expectedMsg {
				t.Errorf("Expected message %q, got %q", tt.expectedMsg, result.Error())
			}
		})
	}
}

func TestNormalizePlatformErrorIsIdempotent(t *testing.T) {
	first := NormalizePlatformError(errors.New("UNAVAILABLE"))
	second := NormalizePlatformErrorFor(fmt.Errorf("wrapped: %w", first), "android")

	if !errors.Is(second, ErrUnavailable) {
		t.Errorf("Expected UNAVAILABLE to survive re-normalization, got %v", second)
	}
}

func TestLiveErrorReason(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{LiveErrorTimeout, "timeout"},
		{LiveErrorModemError, "modem_error"},
		{99, "unknown"},
	}

	for _, tt := range tests {
		err := &LiveError{Code: tt.code}
		if got := err.Reason(); got != tt.want {
			t.Errorf("LiveError{Code: %d}.Reason() = %q, want %q", tt.code, got, tt.want)
		}
	}

	detail := errors.New("radio reset")
	err := &LiveError{Code: LiveErrorModemError, Detail: detail}
	if !errors.Is(err, detail) {
		t.Error("Expected LiveError to unwrap to its detail")
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"live", &LiveError{Code: LiveErrorTimeout}, "timeout"},
		{"wrapped live", fmt.Errorf("acquire: %w", &LiveError{Code: LiveErrorModemError}), "modem_error"},
		{"canceled", context.Canceled, "canceled"},
		{"deadline", context.DeadlineExceeded, "canceled"},
		{"denied", NormalizePlatformErrorFor(errors.New("SecurityException"), "android"), "permission_denied"},
		{"unsupported", ErrUnsupported, "unsupported"},
		{"unavailable", ErrUnavailable, "unavailable"},
		{"other", errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reason(tt.err); got != tt.want {
				t.Errorf("Reason() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAccessor(t *testing.T) {
	var missing Accessor[int64]
	if missing.Supported() {
		t.Error("Expected nil accessor to be unsupported")
	}
	if _, err := missing.Read(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}

	present := Accessor[int64](func() (int64, error) { return 5, nil })
	if v, err := present.Read(); err != nil || v != 5 {
		t.Errorf("Read() = %d, %v", v, err)
	}
}

func TestAdapterBase(t *testing.T) {
	base := &AdapterBase{PlatformID: "android", Revision: 34, Status: "online"}
	base.SetStatus("offline")

	if base.GetPlatformID() != "android" || base.GetRevision() != 34 || base.GetStatus() != "offline" {
		t.Errorf("Unexpected base state %+v", base)
	}
}
