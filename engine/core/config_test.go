package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shaderforge.toml")
	data := `
[shaders]
cache = false
path = "glsl"
material_system = true
relief_mapping = true

[renderer]
width = 1920
z_near = 4.5

[log]
level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Shaders.Cache)
	assert.Equal(t, "glsl", cfg.Shaders.Path)
	assert.True(t, cfg.Shaders.MaterialSystem)
	assert.True(t, cfg.Shaders.ReliefMapping)
	// untouched keys keep their default
	assert.True(t, cfg.Shaders.DeluxeMapping)
	assert.Equal(t, "~/.shaderforge", cfg.Shaders.CachePath)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 1920, cfg.Renderer.Width)
	assert.Equal(t, 720, cfg.Renderer.Height)
	assert.Equal(t, float32(4.5), cfg.Renderer.ZNear)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[shaders\ncache = "), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestResolveCachePath(t *testing.T) {
	cfg := DefaultConfig()
	home, err := homedir.Dir()
	require.NoError(t, err)

	p, err := cfg.ResolveCachePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".shaderforge"), p)

	cfg.Shaders.CachePath = ""
	p, err = cfg.ResolveCachePath()
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestApplyRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "loud"
	assert.Error(t, cfg.Apply())

	cfg.Log.Level = "info"
	require.NoError(t, cfg.Apply())
	assert.False(t, IsDebugEnabled())

	cfg.Shaders.Verbose = true
	require.NoError(t, cfg.Apply())
	assert.True(t, IsDebugEnabled())
	require.NoError(t, SetLogLevel("info"))
}
