package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("list started", "tasks", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug to be filtered: %s", out)
	}
	if !strings.Contains(out, "list started") || !strings.Contains(out, "tasks=3") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestOpenFileWritesLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "paperlist.log")
	logger, closer, err := OpenFile(path, slog.LevelDebug)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	logger.Debug("tick")
	if err := closer.Close(); err != nil {
		t.Fatalf("close log file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "msg=tick") {
		t.Fatalf("expected log line, got %q", data)
	}
}
