package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/cellinfo/internal/auth"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(Config{Path: filepath.Join(t.TempDir(), "audit", "cellinfo.jsonl"), MaxSizeMB: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e), "line %q", scanner.Text())
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestNewLoggerRequiresPath(t *testing.T) {
	_, err := NewLogger(Config{}, nil)
	assert.Error(t, err)
}

func TestLogCall(t *testing.T) {
	l := newTestLogger(t)
	ctx := auth.WithClaims(context.Background(), &auth.Claims{Subject: "app-7"})

	l.LogCall(ctx, Entry{
		RequestID: "req-1",
		Platform:  "android",
		Method:    "getAllCellInfo",
		Code:      "OK",
		Path:      "cached",
		Records:   3,
		LatencyMs: 42,
	})
	l.LogCall(context.Background(), Entry{Platform: "android", Method: "cell_info", Code: "PERMISSION_DENIED"})

	entries := readEntries(t, l.GetFilePath())
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "app-7", first.User)
	assert.Equal(t, "getAllCellInfo", first.Method)
	assert.Equal(t, "cached", first.Path)
	assert.Equal(t, 3, first.Records)
	assert.False(t, first.Timestamp.IsZero())

	assert.Equal(t, "anonymous", entries[1].User)
	assert.Equal(t, "PERMISSION_DENIED", entries[1].Code)
}

func TestLogCallSchema(t *testing.T) {
	l := newTestLogger(t)
	l.LogCall(context.Background(), Entry{Method: "getCellInfo", Code: "OK"})

	data, err := os.ReadFile(l.GetFilePath())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"ts", "user", "platform", "method", "code", "records", "latencyMs"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "requestId")
}

func TestRotate(t *testing.T) {
	l := newTestLogger(t)
	l.LogCall(context.Background(), Entry{Method: "getAllCellInfo", Code: "OK"})
	require.NoError(t, l.Rotate())
	l.LogCall(context.Background(), Entry{Method: "getAllCellInfo", Code: "OK"})

	files, err := os.ReadDir(filepath.Dir(l.GetFilePath()))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Len(t, readEntries(t, l.GetFilePath()), 1)
}

func TestClose(t *testing.T) {
	l := newTestLogger(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.Error(t, l.Rotate())
	assert.Empty(t, l.GetFilePath())

	// Writes after close are dropped.
	l.LogCall(context.Background(), Entry{Method: "getAllCellInfo"})

	var nilLogger *Logger
	nilLogger.LogCall(context.Background(), Entry{})
}

func TestConcurrentLogging(t *testing.T) {
	l := newTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.LogCall(context.Background(), Entry{Method: "getAllCellInfo", Code: "OK"})
		}()
	}
	wg.Wait()

	assert.Len(t, readEntries(t, l.GetFilePath()), 20)
}
