package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
background = "black"
start_command = "foot"
log_level = "debug"

[[outputs]]
name = "left"
width = 1920
height = 1080

[[outputs]]
name = "right"
x = 1920
scale = 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "black", cfg.Background)
	assert.Equal(t, "foot", cfg.StartCommand)
	assert.Equal(t, "debug", cfg.LogLevel)

	require.Len(t, cfg.Outputs, 2)
	assert.Equal(t, OutputConfig{Name: "left", Width: 1920, Height: 1080, Scale: 1}, cfg.Outputs[0])

	// Unset size and scale fall back to defaults.
	right := cfg.Outputs[1]
	assert.Equal(t, 1920, right.X)
	assert.Equal(t, DefaultOutputWidth, right.Width)
	assert.Equal(t, DefaultOutputHeight, right.Height)
	assert.Equal(t, 2.0, right.Scale)
}

func TestLoadEmptyFileKeepsDefaultOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Outputs, 1)
	assert.Equal(t, "headless-0", cfg.Outputs[0].Name)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("background = [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
