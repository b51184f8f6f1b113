package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
	if cfg.Session.Trials != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[session]
device = "touchpad"
trials = 20
hold = 0.75

[analyze]
default-quantile = 1.0

[analyze.quantiles]
mouse = 0.95
touchpad = 0.70

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Device == nil || *cfg.Session.Device != "touchpad" {
		t.Fatalf("unexpected device %v", cfg.Session.Device)
	}
	if cfg.Session.Trials == nil || *cfg.Session.Trials != 20 {
		t.Fatalf("unexpected trials %v", cfg.Session.Trials)
	}
	if cfg.Session.Hold == nil || *cfg.Session.Hold != 0.75 {
		t.Fatalf("unexpected hold %v", cfg.Session.Hold)
	}
	if cfg.Analyze.Quantiles["touchpad"] != 0.70 || cfg.Analyze.Quantiles["mouse"] != 0.95 {
		t.Fatalf("unexpected quantiles %v", cfg.Analyze.Quantiles)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %v", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[session]\ntrails = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "trails") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPathsHonorXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "tuifitts", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "tuifitts", "tuifitts.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogFile(); got != filepath.Join(dir, "tuifitts", "tuifitts.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
