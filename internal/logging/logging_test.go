package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToBothSinks(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "carbonlens.log")

	dl, err := New(&buf, "debug", path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	dl.Logger.Debug("records loaded", "count", 3)
	if err := dl.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if !strings.Contains(buf.String(), "records loaded") {
		t.Errorf("stdout sink missing line: %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "count=3") {
		t.Errorf("file sink missing line: %q", data)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	dl, err := New(&buf, "warn", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	dl.Logger.Info("hidden")
	dl.Logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
