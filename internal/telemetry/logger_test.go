package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterLoggerEmitsJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, false)
	l.Info("api.request", map[string]any{"endpoint": "/auth/details", "status": 200})

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if entry["msg"] != "api.request" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["endpoint"] != "/auth/details" {
		t.Fatalf("expected endpoint field, got %v", entry)
	}
}

func TestDebugSuppressedUnlessEnabled(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf, false).Debug("noisy", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug entry to be dropped, got %q", buf.String())
	}
	NewWriterLogger(&buf, true).Debug("noisy", nil)
	if !strings.Contains(buf.String(), "noisy") {
		t.Fatalf("expected debug entry when enabled")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("x", map[string]any{"a": 1})
	if err := l.Close(); err != nil {
		t.Fatalf("close nil logger: %v", err)
	}
}

func TestFileLoggerCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ctfterm.log")
	l, err := NewLogger(path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Error("boom", map[string]any{"error": "x"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "boom") {
		t.Fatalf("expected entry in log file, got %q", string(b))
	}
}
