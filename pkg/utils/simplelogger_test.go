package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// readLogFile возвращает содержимое единственного .log файла в директории.
func readLogFile(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected exactly one log file, got %v (err=%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(data)
}

func TestLogger_WriteAndDebugGate(t *testing.T) {
	dir := t.TempDir()

	if err := InitLoggerAt(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer Close()

	Info("request started", "model", "glm-4")
	Debug("hidden by default", "key", "value")

	EnableDebug(true)
	Debug("visible now")
	EnableDebug(false)

	Close()

	content := readLogFile(t, dir)

	if !strings.Contains(content, "INFO: request started model=glm-4") {
		t.Errorf("info line missing:\n%s", content)
	}
	if strings.Contains(content, "hidden by default") {
		t.Errorf("debug line written while disabled:\n%s", content)
	}
	if !strings.Contains(content, "DEBUG: visible now") {
		t.Errorf("debug line missing after EnableDebug:\n%s", content)
	}
}
