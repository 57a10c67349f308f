package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// ShaderConfig holds the runtime flags consumed by the shader system.
type ShaderConfig struct {
	// Cache enables the on-disk program binary cache.
	Cache bool `toml:"cache"`
	// CachePath is the home directory of the cache; "~" is expanded.
	CachePath string `toml:"cache_path"`
	// Path overrides the built-in sources with a directory on disk.
	Path string `toml:"path"`
	// Verbose logs every permutation build.
	Verbose bool `toml:"verbose"`
	// Watch reloads sources from Path when they change.
	Watch bool `toml:"watch"`

	MaterialSystem   bool `toml:"material_system"`
	PushBuffer       bool `toml:"push_buffer"`
	BindlessTextures bool `toml:"bindless_textures"`
	DeluxeMapping    bool `toml:"deluxe_mapping"`
	NormalMapping    bool `toml:"normal_mapping"`
	PhysicalMapping  bool `toml:"physical_mapping"`
	SpecularMapping  bool `toml:"specular_mapping"`
	ReliefMapping    bool `toml:"relief_mapping"`
}

// RendererConfig holds the engine values baked into every shader as
// constants.
type RendererConfig struct {
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	AmbientScale  float32 `toml:"ambient_scale"`
	SpecularScale float32 `toml:"specular_scale"`
	ZNear         float32 `toml:"z_near"`
	LightLayers   int     `toml:"light_layers"`
	// MaxSurfaceCommands is the number of stages of the largest material of
	// the loaded world, consumed by the culling compute shaders.
	MaxSurfaceCommands int `toml:"max_surface_commands"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
	Caller bool   `toml:"caller"`
}

type Config struct {
	Shaders  ShaderConfig   `toml:"shaders"`
	Renderer RendererConfig `toml:"renderer"`
	Log      LogConfig      `toml:"log"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Shaders: ShaderConfig{
			Cache:           true,
			CachePath:       "~/.shaderforge",
			DeluxeMapping:   true,
			NormalMapping:   true,
			SpecularMapping: true,
			ReliefMapping:   false,
			PhysicalMapping: false,
		},
		Renderer: RendererConfig{
			Width:              1280,
			Height:             720,
			AmbientScale:       1,
			SpecularScale:      1,
			ZNear:              3,
			LightLayers:        4,
			MaxSurfaceCommands: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a TOML configuration. A missing file yields the defaults,
// keys absent from the file keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogDebug("config file '%s' not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		err = fmt.Errorf("failed to parse config '%s': %w", path, err)
		LogError("%s", err.Error())
		return nil, err
	}
	return cfg, nil
}

// ResolveCachePath expands the cache home directory.
func (c *Config) ResolveCachePath() (string, error) {
	if c.Shaders.CachePath == "" {
		return "", nil
	}
	return homedir.Expand(c.Shaders.CachePath)
}

// Apply pushes the logging part of the configuration to the shared logger.
// Verbose shader logging implies the debug level.
func (c *Config) Apply() error {
	level := c.Log.Level
	if c.Shaders.Verbose {
		level = "debug"
	}
	if level != "" {
		if err := SetLogLevel(level); err != nil {
			return fmt.Errorf("invalid log level '%s': %w", level, err)
		}
	}
	if c.Log.Prefix != "" {
		SetLogPrefix(c.Log.Prefix)
	}
	SetLogCaller(c.Log.Caller)
	return nil
}
