package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "tuifitts.log")
	logger := New(Options{Level: "debug", File: path, Console: &console})
	logger.Debug("trial recorded")
	_ = logger.Sync()

	if !strings.Contains(console.String(), "trial recorded") {
		t.Fatalf("expected console output, got %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"trial recorded"`) {
		t.Fatalf("expected JSON line in file, got %q", data)
	}
}

func TestNewLevelFilters(t *testing.T) {
	var console bytes.Buffer
	logger := New(Options{Level: "warn", Console: &console})
	logger.Info("hidden")
	logger.Warn("shown")
	out := console.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestNewWithoutSinksIsNoop(t *testing.T) {
	logger := New(Options{})
	logger.Info("dropped")
}
