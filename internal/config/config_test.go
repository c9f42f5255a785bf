package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cellinfod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9090"
  acquire_timeout: 3s
platform:
  id: ios
  revision: 17
  augment: false
telemetry:
  heartbeat_interval: 30s
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.AcquireTimeout)
	assert.Equal(t, "ios", cfg.Platform.ID)
	assert.Equal(t, 17, cfg.Platform.Revision)
	assert.False(t, cfg.Platform.Augment)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.HeartbeatInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Audit, cfg.Audit)
	assert.Equal(t, "simulator", cfg.Platform.Kind)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("CELLINFO_SERVER_ADDR", ":7070")
	t.Setenv("CELLINFO_PLATFORM_REVISION", "28")
	t.Setenv("CELLINFO_RATELIMIT_BURST", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 28, cfg.Platform.Revision)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "failed to open config file",
		},
		{
			name:    "directory",
			path:    func(t *testing.T) string { return t.TempDir() },
			wantErr: "not a regular file",
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeFile(t, "server: [unclosed") },
			wantErr: "failed to parse config file",
		},
		{
			name:    "invalid values",
			path:    func(t *testing.T) string { return writeFile(t, "telemetry:\n  buffer_size: 0\n") },
			wantErr: "telemetry: buffer size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server: addr must be set"},
		{"negative timeout", func(c *Config) { c.Server.AcquireTimeout = -time.Second }, "server: timeouts"},
		{"auth hs256 no secret", func(c *Config) { c.Auth.Enabled = true }, "auth: HS256 requires secret_key"},
		{"auth rs256 no key", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Algorithm = "RS256"
		}, "auth: RS256 requires"},
		{"auth bad algorithm", func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.Algorithm = "none"
		}, "auth: unsupported algorithm"},
		{"unknown platform", func(c *Config) { c.Platform.Kind = "modem" }, "platform: unknown platform kind"},
		{"empty platform id", func(c *Config) { c.Platform.ID = "" }, "platform: id must be set"},
		{"negative revision", func(c *Config) { c.Platform.Revision = -1 }, "platform: revision"},
		{"audit no path", func(c *Config) { c.Audit.Path = "" }, "audit: path must be set"},
		{"audit zero size", func(c *Config) { c.Audit.MaxSizeMB = 0 }, "audit: max_size_mb"},
		{"heartbeat zero", func(c *Config) { c.Telemetry.HeartbeatInterval = 0 }, "telemetry: heartbeat interval"},
		{"jitter too large", func(c *Config) { c.Telemetry.HeartbeatJitter = 10 * time.Second }, "exceeds 50%"},
		{"retention zero", func(c *Config) { c.Telemetry.BufferRetention = 0 }, "telemetry: buffer retention"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging:"},
		{"zero rps", func(c *Config) { c.RateLimit.RPS = 0 }, "ratelimit: rps"},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, "ratelimit: burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "got %v", err)
		})
	}

	t.Run("disabled sections skip checks", func(t *testing.T) {
		cfg := Default()
		cfg.Audit.Enabled = false
		cfg.Audit.Path = ""
		cfg.RateLimit.Enabled = false
		cfg.RateLimit.RPS = 0
		assert.NoError(t, Validate(cfg))
	})

	assert.Error(t, Validate(nil))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"CELLINFO_SERVER_ADDR":                  "server.addr",
		"CELLINFO_AUTH_SECRET_KEY":              "auth.secret_key",
		"CELLINFO_TELEMETRY_HEARTBEAT_INTERVAL": "telemetry.heartbeat_interval",
		"CELLINFO_DEBUG":                        "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
