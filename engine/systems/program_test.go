package systems

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

func TestGetProgramReusesPermutation(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))

	first, err := s.GetProgram(0)
	require.NoError(t, err)
	assert.NotZero(t, first)
	assembled := ss.AssemblyCount()
	assert.Equal(t, 2, assembled)
	compiles := backend.Stats().Compiles

	second, err := s.GetProgram(0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, assembled, ss.AssemblyCount())
	assert.Equal(t, compiles, backend.Stats().Compiles)
	assert.Equal(t, metadata.PermutationLinked, s.PermutationState(0, 0))
	assert.Contains(t, backend.Label(first), "screen ")
}

func TestStagesAreSharedBetweenPermutations(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	g := NewGenericShader(ss, false)
	require.NoError(t, ss.RegisterShader(g.Shader))

	_, err := ss.BuildPermutation(g.Shader, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, ss.AssemblyCount())

	// the macro only changes the vertex stage
	_, err = ss.BuildPermutation(g.Shader, macroBit(t, g.Shader, metadata.MacroTCGenEnvironment), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ss.AssemblyCount())

	_, err = ss.BuildPermutation(g.Shader, macroBit(t, g.Shader, metadata.MacroDepthFade), 0)
	require.NoError(t, err)
	assert.Equal(t, 5, ss.AssemblyCount())
}

func TestBuildPermutationRejectsInvalid(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	g := NewGenericShader(ss, false)
	require.NoError(t, ss.RegisterShader(g.Shader))

	conflict := macroBit(t, g.Shader, metadata.MacroVertexSkinning) | macroBit(t, g.Shader, metadata.MacroVertexAnimation)
	_, err := ss.BuildPermutation(g.Shader, conflict, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidPermutation))

	_, err = ss.BuildPermutation(g.Shader, 0, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidPermutation))
	assert.False(t, g.Broken())
	assert.Zero(t, ss.AssemblyCount())
}

func TestDeformPermutations(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))

	bulge := []DeformStage{{Type: DeformBulge, BulgeWidth: 1, BulgeHeight: 2, BulgeSpeed: 3}}
	index, err := ss.GetDeformShaderIndex(bulge)
	require.NoError(t, err)

	plain, err := s.GetProgram(0)
	require.NoError(t, err)
	deformed, err := s.GetProgram(index)
	require.NoError(t, err)
	assert.NotEqual(t, plain, deformed)
	assert.Equal(t, 2, ss.AssemblyCount())
	assert.Equal(t, metadata.PermutationLinked, s.PermutationState(0, index))
}

func TestBrokenShader(t *testing.T) {
	core.EventInitialize()
	listener := new(int)
	var brokenName string
	require.True(t, core.EventRegister(core.EVENT_CODE_SHADER_BROKEN, listener, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		brokenName = data.Data.C[0]
		return true
	}))
	t.Cleanup(func() {
		core.EventUnregister(core.EVENT_CODE_SHADER_BROKEN, listener)
	})

	cfg := testConfig(t)
	cfg.Shaders.Path = writeSources(t, map[string]string{
		"broken_vp.glsl": "uniform mat4 u_ModelViewProjectionMatrix;\nvoid main() {}\n",
		"broken_fp.glsl": "void main() {\n#error unfinished\n}\n",
	})
	backend := software.New()
	ss := newTestSystem(t, cfg, backend)
	sh := ss.NewShader(ShaderDefinition{Name: "broken", Stages: metadata.ShaderStageVertexFragment})
	sh.NewUniform("u_ModelViewProjectionMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush)
	require.NoError(t, ss.RegisterShader(sh))

	_, err := sh.GetProgram(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderCompile))
	assert.True(t, sh.Broken())
	assert.Equal(t, metadata.PermutationBuildFailed, sh.PermutationState(0, 0))
	assert.Equal(t, "broken", brokenName)

	// a broken shader is not built again
	compiles := backend.Stats().Compiles
	_, err = sh.GetProgram(0)
	assert.True(t, errors.Is(err, core.ErrShaderBroken))
	assert.True(t, errors.Is(sh.BindProgram(0), core.ErrShaderBroken))
	assert.Equal(t, compiles, backend.Stats().Compiles)

	ss.MarkProgramForBuilding(sh)
	assert.Error(t, ss.BuildAll())
}

func TestMissingSource(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	sh := ss.NewShader(ShaderDefinition{Name: "missing", Stages: metadata.ShaderStageVertexFragment})
	require.NoError(t, ss.RegisterShader(sh))

	_, err := sh.GetProgram(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShaderSourceNotFound))
	assert.True(t, sh.Broken())
}

func TestProgramUniformLocations(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	lm := NewLightMappingShader(ss, false)
	require.NoError(t, ss.RegisterShader(lm.Shader))

	id, err := lm.GetProgram(0)
	require.NoError(t, err)
	p := lm.programs[0]
	require.NotNil(t, p)
	require.Len(t, p.UniformLocations, len(lm.Uniforms()))

	for _, u := range lm.Uniforms() {
		assert.Equal(t, backend.GetUniformLocation(id, u.Name()), p.UniformLocations[u.locationIndex], u.Name())
	}
	// without relief mapping the height map is compiled out
	assert.Equal(t, int32(-1), p.UniformLocations[lm.HeightMap.locationIndex])

	binding, ok := backend.BlockBinding(id, "u_Lights")
	require.True(t, ok)
	assert.Equal(t, metadata.BufferBindLights, binding)

	// samplers get their texture unit when the program is created
	unit, ok := backend.UniformValue(id, "u_NormalMap")
	require.True(t, ok)
	assert.Equal(t, []uint32{metadata.TextureBindNormalMap}, unit)
}

func TestUniformFirewall(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))
	require.NoError(t, s.BindProgram(0))
	id, err := s.GetProgram(0)
	require.NoError(t, err)
	assert.Equal(t, id, backend.CurrentProgram())

	before := backend.Stats().UniformUploads
	m := math.NewMat4Identity()
	s.ModelViewProjectionMatrix.SetMat4(m)
	s.ModelViewProjectionMatrix.SetMat4(m)
	assert.Equal(t, before+1, backend.Stats().UniformUploads)

	m.Data[12] = 5
	s.ModelViewProjectionMatrix.SetMat4(m)
	assert.Equal(t, before+2, backend.Stats().UniformUploads)

	v, ok := backend.UniformValue(id, "u_ModelViewProjectionMatrix")
	require.True(t, ok)
	assert.Equal(t, stdmath.Float32bits(5), v[12])

	// a type mismatch is ignored
	s.Time.SetInt(3)
	assert.Equal(t, before+2, backend.Stats().UniformUploads)
	s.Time.SetFloat(0.5)
	assert.Equal(t, before+3, backend.Stats().UniformUploads)
	assert.Equal(t, []uint32{stdmath.Float32bits(0.5)}, s.Time.Value())
}

func TestUniformWithoutBoundProgram(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	s := NewScreenShader(ss, false)
	require.NoError(t, ss.RegisterShader(s.Shader))

	s.Time.SetFloat(2)
	assert.Zero(t, backend.Stats().UniformUploads)
	assert.Equal(t, []uint32{stdmath.Float32bits(2)}, s.Time.Value())
}

func TestBindProgramSwitchesShaders(t *testing.T) {
	backend := software.New()
	ss := newTestSystem(t, testConfig(t), backend)
	c, err := LoadCatalog(ss)
	require.NoError(t, err)

	require.NoError(t, c.Screen.BindProgram(0))
	require.NoError(t, c.Skybox.BindProgram(0))
	skybox, err := c.Skybox.GetProgram(0)
	require.NoError(t, err)
	assert.Equal(t, skybox, backend.CurrentProgram())

	// the screen shader lost its bound program
	before := backend.Stats().UniformUploads
	c.Screen.Time.SetFloat(1)
	assert.Equal(t, before, backend.Stats().UniformUploads)
	c.Skybox.Time.SetFloat(1)
	assert.Equal(t, before+1, backend.Stats().UniformUploads)
}

func TestMaterialUniformsAreRedirected(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.MaterialSystem = true
	backend := software.New()
	ss := newTestSystem(t, cfg, backend)
	g := NewGenericShader(ss, true)
	require.NoError(t, ss.RegisterShader(g.Shader))
	require.NoError(t, g.BindProgram(0))

	before := backend.Stats().UniformUploads
	g.Color.SetVec4(math.NewVec4(1, 0.5, 0.25, 1))
	g.AlphaThreshold.SetFloat(0.5)
	assert.Equal(t, before, backend.Stats().UniformUploads)

	// per-draw uniforms still go through the backend
	g.ModelViewProjectionMatrix.SetMat4(math.NewMat4Identity())
	assert.Equal(t, before+1, backend.Stats().UniformUploads)

	buf := make([]uint32, g.Layout().Size)
	g.WriteUniformsToBuffer(buf, metadata.BufferModeMaterial, metadata.UpdateTypeAll)
	offset := g.Color.Offset()
	assert.Equal(t, stdmath.Float32bits(0.5), buf[offset+1])
	assert.Equal(t, stdmath.Float32bits(0.5), buf[g.AlphaThreshold.Offset()])
}

func TestWriteMat3x2PadsColumns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.MaterialSystem = true
	ss := newTestSystem(t, cfg, software.New())
	sh := ss.NewShader(ShaderDefinition{Name: "matrix", UseMaterialSystem: true})
	u := sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeMaterialOrPush)
	require.NoError(t, ss.RegisterShader(sh))
	require.Equal(t, uint32(12), sh.Layout().Size)

	u.SetMat3x2([6]float32{1, 2, 3, 4, 5, 6})
	buf := make([]uint32, 12)
	sh.WriteUniformsToBuffer(buf, metadata.BufferModeMaterial, metadata.UpdateTypeAll)
	f := stdmath.Float32bits
	assert.Equal(t, []uint32{f(1), f(2), 0, 0, f(3), f(4), 0, 0, f(5), f(6), 0, 0}, buf)
}
