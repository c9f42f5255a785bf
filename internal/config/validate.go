package config

import (
	"fmt"
)

// Validate enforces configuration invariants.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateServer(cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateAuth(cfg.Auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := validatePlatform(cfg.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := validateAudit(cfg.Audit); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := validateRateLimit(cfg.RateLimit); err != nil {
		return fmt.Errorf("ratelimit: %w", err)
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("addr must be set")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 || s.AcquireTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

func validateAuth(a AuthConfig) error {
	if !a.Enabled {
		return nil
	}
	switch a.Algorithm {
	case "HS256":
		if a.SecretKey == "" {
			return fmt.Errorf("HS256 requires secret_key")
		}
	case "RS256":
		if a.PublicKeyFile == "" && a.JWKSURL == "" {
			return fmt.Errorf("RS256 requires public_key_file or jwks_url")
		}
	default:
		return fmt.Errorf("unsupported algorithm %q", a.Algorithm)
	}
	if a.RequiredScope == "" {
		return fmt.Errorf("required_scope must be set when auth is enabled")
	}
	return nil
}

func validatePlatform(p PlatformConfig) error {
	if p.Kind != "simulator" {
		return fmt.Errorf("unknown platform kind %q", p.Kind)
	}
	if p.ID == "" {
		return fmt.Errorf("id must be set")
	}
	if p.Revision < 0 {
		return fmt.Errorf("revision must be non-negative, got %d", p.Revision)
	}
	return nil
}

func validateAudit(a AuditConfig) error {
	if !a.Enabled {
		return nil
	}
	if a.Path == "" {
		return fmt.Errorf("path must be set when audit is enabled")
	}
	if a.MaxSizeMB <= 0 {
		return fmt.Errorf("max_size_mb must be positive, got %d", a.MaxSizeMB)
	}
	if a.MaxBackups < 0 || a.MaxAgeDays < 0 {
		return fmt.Errorf("max_backups and max_age_days must be non-negative")
	}
	return nil
}

func validateTelemetry(t TelemetryConfig) error {
	if t.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", t.HeartbeatInterval)
	}
	if t.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", t.HeartbeatJitter)
	}
	if t.HeartbeatJitter > t.HeartbeatInterval/2 {
		return fmt.Errorf("heartbeat jitter %v exceeds 50%% of interval %v", t.HeartbeatJitter, t.HeartbeatInterval)
	}
	if t.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", t.BufferSize)
	}
	if t.BufferRetention <= 0 {
		return fmt.Errorf("buffer retention must be positive, got %v", t.BufferRetention)
	}
	return nil
}

func validateRateLimit(r RateLimitConfig) error {
	if !r.Enabled {
		return nil
	}
	if r.RPS <= 0 {
		return fmt.Errorf("rps must be positive, got %v", r.RPS)
	}
	if r.Burst <= 0 {
		return fmt.Errorf("burst must be positive, got %d", r.Burst)
	}
	return nil
}
