package config

import (
	"time"

	"github.com/radio-control/cellinfo/internal/logging"
)

// Config is the complete daemon configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Platform  PlatformConfig  `koanf:"platform"`
	Audit     AuditConfig     `koanf:"audit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Logging   logging.Config  `koanf:"logging"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// AcquireTimeout bounds the wait for a live update only; the cached read
	// that follows is not limited. Zero leaves the wait to the platform.
	AcquireTimeout time.Duration `koanf:"acquire_timeout"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Algorithm     string `koanf:"algorithm"`
	SecretKey     string `koanf:"secret_key"`
	PublicKeyFile string `koanf:"public_key_file"`
	JWKSURL       string `koanf:"jwks_url"`
	RequiredScope string `koanf:"required_scope"`
}

// PlatformConfig selects and tunes the platform adapter.
type PlatformConfig struct {
	// Kind is "simulator"; real platform bindings register their own kinds.
	Kind     string `koanf:"kind"`
	ID       string `koanf:"id"`
	Revision int    `koanf:"revision"`
	Scenario string `koanf:"scenario"`

	// Augment enables the best-effort attribute probe.
	Augment bool `koanf:"augment"`
}

// AuditConfig configures the rotating JSONL audit log.
type AuditConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig configures the SSE event hub.
type TelemetryConfig struct {
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	// HeartbeatJitter spreads each heartbeat by up to this much either way.
	HeartbeatJitter time.Duration `koanf:"heartbeat_jitter"`
	BufferSize      int           `koanf:"buffer_size"`
	BufferRetention time.Duration `koanf:"buffer_retention"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:       false,
			Algorithm:     "HS256",
			RequiredScope: "location",
		},
		Platform: PlatformConfig{
			Kind:     "simulator",
			ID:       "android",
			Revision: 34,
			Augment:  true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			Path:       "audit/cellinfo.jsonl",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Telemetry: TelemetryConfig{
			HeartbeatInterval: 15 * time.Second,
			HeartbeatJitter:   2 * time.Second,
			BufferSize:        50,
			BufferRetention:   time.Hour,
		},
		Logging: logging.NewDefaultConfig(),
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
	}
}
