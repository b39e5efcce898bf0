// Package config loads prism's TOML configuration: backend selection,
// logging, and default trace dimensions. Everything has a usable default;
// a config file only overrides.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// Trace holds default dimensions for trace dispatches that scripts do not
// size explicitly.
type Trace struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

// Config is the top-level prism configuration.
type Config struct {
	// Backend biases backend selection: "auto", "vulkan", or "none".
	Backend string `toml:"backend"`
	// LogLevel is one of charmbracelet/log's level names.
	LogLevel string `toml:"log_level"`

	Trace Trace `toml:"trace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:  "auto",
		LogLevel: "info",
		Trace:    Trace{Width: 640, Height: 480},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values against their accepted sets.
func (c Config) Validate() error {
	switch c.Backend {
	case "auto", "vulkan", "none":
	default:
		return fmt.Errorf("backend: %q is not one of auto, vulkan, none", c.Backend)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Trace.Width == 0 || c.Trace.Height == 0 {
		return fmt.Errorf("trace: width and height must be positive")
	}
	return nil
}

// Level parses the configured log level. Validate must have passed.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
