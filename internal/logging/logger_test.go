package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"quiet", "quiet", LevelQuiet},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Quiet", "Quiet", LevelQuiet},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("quiet", &buf)

	logger.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote info output: %s", buf.String())
	}

	logger.Error("should surface")
	if !strings.Contains(buf.String(), "should surface") {
		t.Errorf("quiet logger dropped error output: %s", buf.String())
	}
}

func TestNewSyncLoggerLevelGating(t *testing.T) {
	dir := t.TempDir()

	if sl := NewSyncLogger(dir, "info"); sl != nil {
		t.Error("NewSyncLogger at info level should return nil")
	}
	if sl := NewSyncLogger(dir, "quiet"); sl != nil {
		t.Error("NewSyncLogger at quiet level should return nil")
	}

	sl := NewSyncLogger(dir, "debug")
	if sl == nil {
		t.Fatal("NewSyncLogger at debug level returned nil")
	}
	defer sl.Close()

	if _, err := os.Stat(filepath.Join(dir, "sync.jsonl")); err != nil {
		t.Errorf("sync.jsonl was not created: %v", err)
	}
}

func TestSyncLoggerNilSafe(t *testing.T) {
	var sl *SyncLogger
	sl.Log(map[string]any{"event": "skip"}) // must not panic
	sl.Close()
}

func TestSyncLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	sl := NewSyncLogger(dir, "debug")
	if sl == nil {
		t.Fatal("NewSyncLogger returned nil")
	}

	event := map[string]any{"event": "download", "sim": "THC:0001"}
	sl.Log(event)
	sl.Close()

	data, err := os.ReadFile(filepath.Join(dir, "sync.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &got); err != nil {
		t.Fatalf("invalid JSONL line: %v", err)
	}
	if got["event"] != "download" || got["sim"] != "THC:0001" {
		t.Errorf("logged event = %v", got)
	}
	if _, ok := got["time"]; !ok {
		t.Error("time field missing from logged event")
	}
	if _, ok := event["time"]; ok {
		t.Error("caller's map was mutated")
	}
}
