package logger

import (
	"os"
	"strings"
	"testing"

	"devcollab/internal/config"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	l := newTestLogger(t)

	l.Info("hello %s", "info")
	l.Warning("careful %d", 2)
	l.Error("broken: %v", "boom")

	expected := map[Level]string{
		LevelInfo:    "hello info",
		LevelWarning: "careful 2",
		LevelError:   "broken: boom",
	}

	for lvl, want := range expected {
		data, err := os.ReadFile(l.Path(lvl))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", lvl.FileName(), err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s = %q, expected it to contain %q", lvl.FileName(), data, want)
		}
		if !strings.Contains(string(data), "logger_test.go") {
			t.Errorf("%s should reference the calling file, got %q", lvl.FileName(), data)
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l := newTestLogger(t)

	l.Info("first line")
	if err := l.CleanLogs(LevelInfo); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(l.Path(LevelInfo))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty info.log after clean, got %d bytes", info.Size())
	}

	l.Info("after clean")
	data, _ := os.ReadFile(l.Path(LevelInfo))
	if !strings.Contains(string(data), "after clean") {
		t.Errorf("Expected new entries after clean, got %q", data)
	}

	if err := l.CleanLogs(Level("debug")); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		ok    bool
	}{
		{"info", LevelInfo, true},
		{"warning", LevelWarning, true},
		{"error", LevelError, true},
		{"debug", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseLevel(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = (%q, %v), expected (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
