package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prism.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Backend != "auto" {
		t.Errorf("default backend = %q, want auto", cfg.Backend)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend = "none"
log_level = "debug"

[trace]
width = 1920
height = 1080
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "none" {
		t.Errorf("backend = %q, want none", cfg.Backend)
	}
	if cfg.Level() != log.DebugLevel {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
	if cfg.Trace.Width != 1920 || cfg.Trace.Height != 1080 {
		t.Errorf("trace = %dx%d, want 1920x1080", cfg.Trace.Width, cfg.Trace.Height)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `log_level = "warn"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != "auto" {
		t.Errorf("backend = %q, want default auto", cfg.Backend)
	}
	if cfg.Trace.Width != 640 {
		t.Errorf("trace width = %d, want default 640", cfg.Trace.Width)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, body := range []string{
		`backend = "dx12"`,
		`log_level = "loud"`,
		"[trace]\nwidth = 0",
	} {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%q) succeeded, want error", body)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
