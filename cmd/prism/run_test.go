package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.toml")
	if err := os.WriteFile(path, []byte(`backend = "vulkan"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, "none", "debug")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Backend != "none" {
		t.Errorf("backend = %q, want flag override none", cfg.Backend)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfigRejectsBadOverride(t *testing.T) {
	if _, err := loadConfig("", "opengl", ""); err == nil {
		t.Fatal("bad backend override accepted")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", "", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Backend != "auto" || cfg.Trace.Width != 640 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
