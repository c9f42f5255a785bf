package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/radio-control/cellinfo/internal/auth"
)

// Entry is a single audit log line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	RequestID string    `json:"requestId,omitempty"`
	User      string    `json:"user"`
	Platform  string    `json:"platform"`
	Method    string    `json:"method"`
	Code      string    `json:"code"`
	Path      string    `json:"path,omitempty"`
	Records   int       `json:"records"`
	LatencyMs int64     `json:"latencyMs"`
}

// Config controls file location and rotation.
type Config struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger implements the audit logging functionality.
type Logger struct {
	mu     sync.Mutex
	out    *lumberjack.Logger
	logger *zap.Logger
}

// NewLogger creates an audit logger writing to cfg.Path.
func NewLogger(cfg Config, logger *zap.Logger) (*Logger, error) {
	if cfg.Path == "" {
		return nil, errors.New("audit log path must be set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &Logger{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
		logger: logger,
	}, nil
}

// LogCall writes one entry. The user is taken from the request claims when
// present.
func (l *Logger) LogCall(ctx context.Context, e Entry) {
	if l == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.User == "" {
		e.User = userFromContext(ctx)
	}
	l.write(e)
}

func (l *Logger) write(e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		l.logger.Error("failed to marshal audit entry", zap.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		l.logger.Error("failed to write audit entry", zap.Error(err))
	}
}

func userFromContext(ctx context.Context) string {
	if claims := auth.ClaimsFromContext(ctx); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

// Rotate closes the current file and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return errors.New("audit logger closed")
	}
	return l.out.Rotate()
}

// Close closes the audit logger and its file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// GetFilePath returns the path to the active audit log file.
func (l *Logger) GetFilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return ""
	}
	return l.out.Filename
}
