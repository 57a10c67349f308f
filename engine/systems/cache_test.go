package systems

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/assets/loaders"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

func TestCacheFilename(t *testing.T) {
	entries := []metadata.ShaderEntry{
		{Name: "deformVertexes_0", Macro: 0, Stage: metadata.ShaderStageVertex},
		{Name: "screen", Macro: 0, Stage: metadata.ShaderStageVertex},
		{Name: "screen", Macro: 2, Stage: metadata.ShaderStageFragment},
	}
	assert.Equal(t, filepath.Join("glsl", "screen", "deformVertexes_0_0_10_1_2_4_.bin"), cacheFilename(entries, "screen"))
}

// buildScreen builds the screen program in a new system and returns the
// system, its backend and the program.
func buildScreen(t *testing.T, cfg *core.Config) (*ShaderSystem, *software.Backend, *metadata.ShaderProgramDescriptor) {
	t.Helper()
	backend := software.New()
	ss := newTestSystem(t, cfg, backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	_, err := s.GetProgram(0)
	require.NoError(t, err)
	return ss, backend, s.programs[0]
}

func cacheFiles(t *testing.T, cfg *core.Config) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(cfg.Shaders.CachePath, "glsl", "screen", "*.bin"))
	require.NoError(t, err)
	return files
}

func TestProgramBinaryCache(t *testing.T) {
	cfg := testConfig(t)

	_, first, built := buildScreen(t, cfg)
	assert.False(t, built.FromCache)
	assert.Equal(t, 1, first.Stats().BinarySaves)
	require.Len(t, cacheFiles(t, cfg), 1)

	_, second, loaded := buildScreen(t, cfg)
	assert.True(t, loaded.FromCache)
	assert.Zero(t, second.Stats().Compiles)
	assert.Equal(t, 1, second.Stats().BinaryLoads)
	assert.Equal(t, built.Checksum, loaded.Checksum)
	assert.Equal(t, built.UniformLocations, loaded.UniformLocations)
}

func TestProgramBinaryCacheMisses(t *testing.T) {
	cfg := testConfig(t)
	buildScreen(t, cfg)

	// the headers depend on the renderer size
	cfg.Renderer.Width = 1920
	_, backend, p := buildScreen(t, cfg)
	assert.False(t, p.FromCache)
	assert.NotZero(t, backend.Stats().Compiles)
	assert.Zero(t, backend.Stats().BinaryLoads)

	files := cacheFiles(t, cfg)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)

	// a body shorter than the stored length
	require.NoError(t, os.WriteFile(files[0], data[:len(data)-1], 0o644))
	_, backend, p = buildScreen(t, cfg)
	assert.False(t, p.FromCache)
	assert.Zero(t, backend.Stats().BinaryLoads)

	// not even a header
	require.NoError(t, os.WriteFile(files[0], data[:10], 0o644))
	_, backend, p = buildScreen(t, cfg)
	assert.False(t, p.FromCache)
	assert.Zero(t, backend.Stats().BinaryLoads)
}

func TestProgramBinaryCacheDriverChange(t *testing.T) {
	cfg := testConfig(t)
	buildScreen(t, cfg)

	// a driver update changes the version string and so the driver hash
	backend := software.New(software.WithCapabilities(func(c *metadata.Capabilities) {
		c.Version += " other"
	}))
	ss := newTestSystem(t, cfg, backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	_, err := s.GetProgram(0)
	require.NoError(t, err)

	assert.False(t, s.programs[0].FromCache)
	assert.Zero(t, backend.Stats().BinaryLoads)
	assert.NotZero(t, backend.Stats().Compiles)
	assert.False(t, ss.cacheInvalidated)

	// the rebuilt binary carries the new driver hash
	files := cacheFiles(t, cfg)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	sb, err := loaders.DecodeShaderBinary(data)
	require.NoError(t, err)
	assert.Equal(t, ss.driverHash, sb.Header.DriverVersionHash)
}

func TestProgramBinaryCacheVersion(t *testing.T) {
	cfg := testConfig(t)
	buildScreen(t, cfg)

	files := cacheFiles(t, cfg)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	sb, err := loaders.DecodeShaderBinary(data)
	require.NoError(t, err)
	sb.Header.Version = metadata.ShaderCacheVersion - 1
	require.NoError(t, os.WriteFile(files[0], loaders.EncodeShaderBinary(sb), 0o644))

	ss, _, p := buildScreen(t, cfg)
	assert.False(t, p.FromCache)
	assert.True(t, ss.cacheInvalidated)

	// the rebuilt program replaced the stale file
	_, _, p = buildScreen(t, cfg)
	assert.True(t, p.FromCache)
}

func TestProgramBinaryCacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.Cache = false
	_, backend, _ := buildScreen(t, cfg)
	assert.Zero(t, backend.Stats().BinarySaves)
	assert.Empty(t, cacheFiles(t, cfg))

	// sources from disk may change under the cache
	cfg = testConfig(t)
	cfg.Shaders.Path = writeSources(t, nil)
	_, backend, _ = buildScreen(t, cfg)
	assert.Zero(t, backend.Stats().BinarySaves)
	assert.Empty(t, cacheFiles(t, cfg))
}
