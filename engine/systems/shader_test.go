package systems

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/assets"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Shaders.CachePath = t.TempDir()
	return cfg
}

func newTestSystem(t *testing.T, cfg *core.Config, backend *software.Backend) *ShaderSystem {
	t.Helper()
	ss, err := NewShaderSystem(cfg, backend, assets.NewShaderSource(cfg.Shaders.Path))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ss.Shutdown()
	})
	return ss
}

// writeSources exports the built-in sources to a new directory and adds the
// given files to it.
func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, assets.ExportBuiltins(dir, func(path string, data []byte) error {
		return os.WriteFile(path, data, 0o644)
	}))
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	return dir
}

func macroBit(t *testing.T, sh *Shader, macroType metadata.MacroType) uint32 {
	t.Helper()
	for _, m := range sh.Macros() {
		if m.Type() == macroType {
			return m.Bit()
		}
	}
	t.Fatalf("shader %s has no macro %s", sh.Name(), macroType)
	return 0
}

func TestNewShaderSystemRequiresBackend(t *testing.T) {
	_, err := NewShaderSystem(testConfig(t), nil, nil)
	assert.Error(t, err)
}

func TestEffectiveCapabilities(t *testing.T) {
	cfg := testConfig(t)
	ss := newTestSystem(t, cfg, software.New())
	caps := ss.Capabilities()
	assert.False(t, caps.MaterialSystem)
	assert.False(t, caps.PushBuffer)
	assert.Nil(t, ss.GlobalUBO())
	assert.Equal(t, 460, ss.GLSLVersion())

	cfg = testConfig(t)
	cfg.Shaders.MaterialSystem = true
	cfg.Shaders.PushBuffer = true
	// the software backend has no bindless textures
	cfg.Shaders.BindlessTextures = true
	ss = newTestSystem(t, cfg, software.New())
	caps = ss.Capabilities()
	assert.True(t, caps.MaterialSystem)
	assert.True(t, caps.PushBuffer)
	assert.False(t, caps.BindlessTextures)
	assert.NotNil(t, ss.GlobalUBO())

	noSSBO := software.New(software.WithCapabilities(func(c *metadata.Capabilities) {
		c.ShaderStorageBuffer = false
	}))
	ss = newTestSystem(t, cfg, noSSBO)
	assert.False(t, ss.Capabilities().MaterialSystem)
}

func TestRegisterShaderTwice(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	assert.Error(t, ss.RegisterShader(s.Shader))

	other := newTestSystem(t, testConfig(t), software.New())
	assert.Error(t, other.RegisterShader(NewScreenShader(ss, false).Shader))
}

func TestRegisterShaderLogsNameVerbatim(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })

	ss := newTestSystem(t, testConfig(t), software.New())
	sh := ss.NewShader(ShaderDefinition{Name: "fog%dense", Stages: metadata.ShaderStageVertexFragment})
	require.NoError(t, ss.RegisterShader(sh))
	require.Error(t, ss.RegisterShader(sh))

	assert.Contains(t, buf.String(), "shader fog%dense is already registered")
	assert.NotContains(t, buf.String(), "%!d")
}

func TestShaderLookupSuggestsName(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	_, err := LoadCatalog(ss)
	require.NoError(t, err)

	sh, err := ss.Shader("generic")
	require.NoError(t, err)
	assert.Equal(t, "generic", sh.Name())

	_, err = ss.Shader("generc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderNotFound))
	assert.Contains(t, err.Error(), "did you mean generic?")

	_, err = ss.Shader("zzzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderNotFound))
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestUniformLookup(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	s := NewScreenShader(ss, false)

	u, err := s.Uniform("u_CurrentMap")
	require.NoError(t, err)
	assert.True(t, u.IsTexture())
	assert.Equal(t, metadata.UpdateTypePush, u.UpdateType())

	_, err = s.Uniform("u_Missing")
	assert.True(t, errors.Is(err, core.ErrUnknownUniform))
}

func TestBuildAllBuildsCatalog(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*core.Config)
		shaders   int
	}{
		{"direct", func(*core.Config) {}, 7},
		{"material system", func(cfg *core.Config) {
			cfg.Shaders.MaterialSystem = true
			cfg.Shaders.PushBuffer = true
		}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.configure(cfg)
			backend := software.New()
			ss := newTestSystem(t, cfg, backend)

			_, err := LoadCatalog(ss)
			require.NoError(t, err)
			require.Len(t, ss.Shaders(), tt.shaders)
			require.NoError(t, ss.BuildAll())

			m := ss.Metrics()
			assert.NotZero(t, m.Programs)
			for _, sh := range ss.Shaders() {
				assert.False(t, sh.Broken(), sh.Name())
				assert.NotZero(t, m.Shader(sh.Name()).Permutations, sh.Name())
				assert.Zero(t, m.Shader(sh.Name()).Failed, sh.Name())
			}
			assert.Equal(t, int(m.Link.Count), backend.Stats().Links)
		})
	}
}

func TestBuildAllSkipsUnusedPermutations(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	lm := NewLightMappingShader(ss, false)
	require.NoError(t, ss.RegisterShader(lm.Shader))
	ss.MarkProgramForBuilding(lm.Shader)
	require.NoError(t, ss.BuildAll())

	stats := ss.Metrics().Shader("lightMapping")
	assert.Equal(t, lm.NumPermutations(), stats.Permutations+stats.Unused)
	assert.NotZero(t, stats.Unused)

	relief := macroBit(t, lm.Shader, metadata.MacroReliefMapping)
	assert.Equal(t, metadata.PermutationUnbuilt, lm.PermutationState(relief, 0))
	assert.Equal(t, metadata.PermutationLinked, lm.PermutationState(0, 0))
}

func TestReloadSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.Path = writeSources(t, nil)
	ss := newTestSystem(t, cfg, software.New())
	c, err := LoadCatalog(ss)
	require.NoError(t, err)

	_, err = c.Screen.GetProgram(0)
	require.NoError(t, err)
	_, err = c.Generic.GetProgram(0)
	require.NoError(t, err)

	affected := ss.ReloadSource("screen_fp.glsl")
	require.Len(t, affected, 1)
	assert.Equal(t, "screen", affected[0].Name())
	assert.Equal(t, metadata.PermutationUnbuilt, c.Screen.PermutationState(0, 0))
	assert.Equal(t, metadata.PermutationLinked, c.Generic.PermutationState(0, 0))

	// inserts affect every shader
	affected = ss.ReloadSource("common.glsl")
	assert.Len(t, affected, len(ss.Shaders()))
	assert.Equal(t, metadata.PermutationUnbuilt, c.Generic.PermutationState(0, 0))

	_, err = c.Generic.GetProgram(0)
	assert.NoError(t, err)
}

func TestReloadDeformKeepsIndexes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.Path = writeSources(t, nil)
	ss := newTestSystem(t, cfg, software.New())

	wave := []DeformStage{{Type: DeformWave, Wave: Waveform{Func: GenFuncSin, Amplitude: 1, Frequency: 2}}}
	index, err := ss.GetDeformShaderIndex(wave)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	ss.ReloadSource("deformVertexes_vp.glsl")
	assert.Equal(t, 2, ss.DeformCount())
	again, err := ss.GetDeformShaderIndex(wave)
	require.NoError(t, err)
	assert.Equal(t, index, again)
}

func TestSourceEvents(t *testing.T) {
	core.EventInitialize()
	listener := new(int)
	var built, changed core.EventContext
	require.True(t, core.EventRegister(core.EVENT_CODE_SHADERS_BUILT, listener, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		built = data
		return false
	}))
	require.True(t, core.EventRegister(core.EVENT_CODE_SHADER_SOURCE_CHANGED, listener, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		changed = data
		return false
	}))
	t.Cleanup(func() {
		core.EventUnregister(core.EVENT_CODE_SHADERS_BUILT, listener)
		core.EventUnregister(core.EVENT_CODE_SHADER_SOURCE_CHANGED, listener)
	})

	ss := newTestSystem(t, testConfig(t), software.New())
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	ss.MarkProgramForBuilding(s.Shader)
	require.NoError(t, ss.BuildAll())
	assert.Equal(t, uint32(1), built.Data.U32[0])
	assert.Zero(t, built.Data.U32[1])

	ss.ReloadSource("screen_vp.glsl")
	assert.Equal(t, "screen_vp.glsl", changed.Data.C[0])
	assert.Equal(t, uint32(1), changed.Data.U32[0])
}

func TestFreeAllReleasesBackendObjects(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	_, err := s.GetProgram(0)
	require.NoError(t, err)

	shaders, programs := backend.LiveObjects()
	assert.Equal(t, 3, shaders)
	assert.Equal(t, 1, programs)

	require.NoError(t, ss.Reset())
	shaders, programs = backend.LiveObjects()
	assert.Zero(t, shaders)
	assert.Zero(t, programs)
	assert.Equal(t, 1, ss.DeformCount())

	_, err = s.GetProgram(0)
	assert.NoError(t, err)
}
