// Package logging provides leveled logging and sync tracing for corewa.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A SyncLogger for structured JSONL sync traces (.corewa/sync.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelQuiet is a custom slog level above Warn. In quiet mode only errors
// and warnings surface; per-key download/skip decisions are suppressed.
const LevelQuiet = slog.LevelWarn

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "quiet", "info", "debug" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "quiet":
		return LevelQuiet
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SyncLogger writes structured sync events to a JSONL file.
// It is safe for concurrent use. A nil SyncLogger is safe to use;
// all methods are no-ops on nil receiver.
type SyncLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewSyncLogger creates a sync logger writing to dir/sync.jsonl.
// At "info" or "quiet" level (the default), returns nil — no file is
// created. At "debug" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewSyncLogger(dir string, level string) *SyncLogger {
	if ParseLevel(level) != slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil
	}

	path := filepath.Join(dir, "sync.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}

	return &SyncLogger{file: f}
}

// Log writes a sync event as a single JSONL line.
// A "time" field is added automatically. The caller's map is not mutated.
// Safe to call on nil receiver.
func (sl *SyncLogger) Log(event map[string]any) {
	if sl == nil || sl.file == nil {
		return
	}

	// Copy to avoid mutating caller's map
	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)

	sl.mu.Lock()
	defer sl.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = sl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (sl *SyncLogger) Close() {
	if sl == nil || sl.file == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.file.Close()
	sl.file = nil
}
