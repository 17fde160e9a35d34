// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml"
)

// Default configuration values.
const (
	DefaultOutputWidth  = 1280
	DefaultOutputHeight = 720
	DefaultBackground   = "darkslategray"
)

// Config is the compositor configuration.
type Config struct {
	Outputs    []OutputConfig `toml:"outputs"`
	Background string         `toml:"background"`

	// StartCommand is executed once the socket is up, with
	// WAYLAND_DISPLAY pointing at it.
	StartCommand string `toml:"start_command"`

	LogLevel string `toml:"log_level"`
}

// OutputConfig describes one output in the layout.
type OutputConfig struct {
	Name   string  `toml:"name"`
	X      int     `toml:"x"`
	Y      int     `toml:"y"`
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Scale  float64 `toml:"scale"`
}

// Default returns a Config with default values: one output, no
// startup command.
func Default() *Config {
	return &Config{
		Outputs: []OutputConfig{
			{
				Name:   "headless-0",
				Width:  DefaultOutputWidth,
				Height: DefaultOutputHeight,
				Scale:  1,
			},
		},
		Background: DefaultBackground,
		LogLevel:   "info",
	}
}

// Path returns the config file path in the XDG config directory,
// creating parent directories as needed.
func Path() (string, error) {
	return xdg.ConfigFile("shoji/config.toml")
}

// Load reads the config file at path, falling back to defaults for
// anything unset. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = Default().Outputs
	}
	for i := range cfg.Outputs {
		if cfg.Outputs[i].Scale == 0 {
			cfg.Outputs[i].Scale = 1
		}
		if cfg.Outputs[i].Width <= 0 {
			cfg.Outputs[i].Width = DefaultOutputWidth
		}
		if cfg.Outputs[i].Height <= 0 {
			cfg.Outputs[i].Height = DefaultOutputHeight
		}
	}
	return cfg, nil
}
