package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", NewDefaultConfig(), false},
		{"console debug", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewWithSinkWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(NewDefaultConfig(), zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("cells acquired", zap.Int("count", 2))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "cells acquired", entry["msg"])
	assert.Equal(t, "cellinfod", entry["service"])
	assert.EqualValues(t, 2, entry["count"])
	assert.Contains(t, entry, "ts")
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	tl.Warn("cached cell read failed", zap.String("reason", "internal"))

	tl.AssertLogged(t, zapcore.WarnLevel, "cached cell read")
	assert.Len(t, tl.FilterMessage("cached cell read failed").All(), 1)
}
