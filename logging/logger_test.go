package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDailyRotatingWriter_RotatesOnDateChange(t *testing.T) {
	dir := t.TempDir()
	w := newDailyRotatingWriter(dir, "pypixl")
	defer w.Close()

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)
	w.now = func() time.Time { return day }

	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	day = day.Add(2 * time.Minute)
	if _, err := w.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "pypixl-2026-03-01.log"))
	if err != nil {
		t.Fatalf("Expected first day log file: %v", err)
	}
	if string(first) != "first\n" {
		t.Errorf("Unexpected first day content: %q", first)
	}

	second, err := os.ReadFile(filepath.Join(dir, "pypixl-2026-03-02.log"))
	if err != nil {
		t.Fatalf("Expected second day log file: %v", err)
	}
	if string(second) != "second\n" {
		t.Errorf("Unexpected second day content: %q", second)
	}
}

func TestDailyRotatingWriter_CloseIsIdempotent(t *testing.T) {
	w := newDailyRotatingWriter(t.TempDir(), "pypixl")
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestCreateLogger_WritesJSONToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger := CreateLogger(LogLevelInfo, dir, "pypixl")

	logger.Debug("hidden")
	logger.Info("camera connected", "index", 2)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Expected log directory to be created: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log file, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "hidden") {
		t.Error("Debug record written at info level")
	}
	if !strings.Contains(content, `"msg":"camera connected"`) || !strings.Contains(content, `"index":2`) {
		t.Errorf("Unexpected log content: %s", content)
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		if _, err := ParseLogLevel(s); err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) != NopLogger {
		t.Error("Expected NopLogger for nil logger")
	}
	logger := CreateConsoleLogger(LogLevelError)
	if OrNop(logger) != logger {
		t.Error("Expected the given logger to be returned")
	}
}
