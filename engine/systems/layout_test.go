package systems

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

type uniformDecl struct {
	name  string
	t     metadata.UniformType
	count uint32
}

func declareUniforms(t *testing.T, decls ...uniformDecl) []*Uniform {
	t.Helper()
	ss := newTestSystem(t, testConfig(t), software.New())
	sh := ss.NewShader(ShaderDefinition{Name: "pack"})
	var out []*Uniform
	for _, d := range decls {
		if d.count > 0 {
			out = append(out, sh.NewUniformArray(d.name, d.t, d.count, metadata.UpdateTypeMaterialOrPush))
		} else {
			out = append(out, sh.NewUniform(d.name, d.t, metadata.UpdateTypeMaterialOrPush))
		}
	}
	return out
}

func uniformNames(uniforms []*Uniform) []string {
	out := make([]string, len(uniforms))
	for i, u := range uniforms {
		out[i] = u.Name()
	}
	return out
}

// declarationOrderSize places the uniforms in declaration order, padding
// each one up to its alignment.
func declarationOrderSize(decls []uniformDecl) uint32 {
	var cursor uint32
	for _, d := range decls {
		words := d.t.Words(false)
		if d.count > 0 {
			words = math.AlignUp(words, 4) * d.count
		}
		cursor = math.AlignUp(cursor, d.t.Alignment(false)) + words
	}
	return math.AlignUp(cursor, 4)
}

func TestPackUniforms(t *testing.T) {
	tests := []struct {
		name    string
		decls   []uniformDecl
		order   []string
		offsets []uint32
		sizes   []uint32
		size    uint32
	}{
		{
			name:    "single mat4",
			decls:   []uniformDecl{{"u_M", metadata.UniformTypeMat4, 0}},
			order:   []string{"u_M"},
			offsets: []uint32{0},
			sizes:   []uint32{16},
			size:    16,
		},
		{
			name:    "trailing float absorbs padding",
			decls:   []uniformDecl{{"u_A", metadata.UniformTypeFloat, 0}, {"u_B", metadata.UniformTypeFloat, 0}},
			order:   []string{"u_A", "u_B"},
			offsets: []uint32{0, 1},
			sizes:   []uint32{1, 3},
			size:    4,
		},
		{
			name: "float fills the vec3 tail",
			decls: []uniformDecl{
				{"u_A", metadata.UniformTypeVec3, 0},
				{"u_B", metadata.UniformTypeFloat, 0},
				{"u_C", metadata.UniformTypeVec3, 0},
			},
			order:   []string{"u_A", "u_B", "u_C"},
			offsets: []uint32{0, 3, 4},
			sizes:   []uint32{3, 1, 4},
			size:    8,
		},
		{
			name: "fog and blur",
			decls: []uniformDecl{
				{"u_Density", metadata.UniformTypeFloat, 0},
				{"u_Scale", metadata.UniformTypeVec2, 0},
				{"u_FogColor", metadata.UniformTypeVec3, 0},
				{"u_blurVec", metadata.UniformTypeVec3, 0},
			},
			order:   []string{"u_FogColor", "u_Density", "u_blurVec", "u_Scale"},
			offsets: []uint32{0, 3, 4, 8},
			sizes:   []uint32{3, 1, 4, 4},
			size:    12,
		},
		{
			name:    "highest alignment first",
			decls:   []uniformDecl{{"u_F", metadata.UniformTypeFloat, 0}, {"u_V", metadata.UniformTypeVec4, 0}},
			order:   []string{"u_V", "u_F"},
			offsets: []uint32{0, 4},
			sizes:   []uint32{4, 4},
			size:    8,
		},
		{
			name: "vec2 pairs",
			decls: []uniformDecl{
				{"u_A", metadata.UniformTypeVec2, 0},
				{"u_B", metadata.UniformTypeFloat, 0},
				{"u_C", metadata.UniformTypeVec2, 0},
			},
			order:   []string{"u_A", "u_C", "u_B"},
			offsets: []uint32{0, 2, 4},
			sizes:   []uint32{2, 2, 4},
			size:    8,
		},
		{
			name:    "array then scalar",
			decls:   []uniformDecl{{"u_F", metadata.UniformTypeFloat, 0}, {"u_Arr", metadata.UniformTypeVec4Array, 3}},
			order:   []string{"u_Arr", "u_F"},
			offsets: []uint32{0, 12},
			sizes:   []uint32{4, 4},
			size:    16,
		},
		{
			name: "vec3 grows before array",
			decls: []uniformDecl{
				{"u_A", metadata.UniformTypeVec3, 0},
				{"u_Arr", metadata.UniformTypeVec4Array, 1},
			},
			order:   []string{"u_A", "u_Arr"},
			offsets: []uint32{0, 4},
			sizes:   []uint32{4, 4},
			size:    8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := PackUniforms(declareUniforms(t, tt.decls...))
			require.NoError(t, err)
			assert.Equal(t, tt.order, uniformNames(layout.Uniforms))
			for i, u := range layout.Uniforms {
				assert.Equal(t, tt.offsets[i], u.Offset(), u.Name())
				assert.Equal(t, tt.sizes[i], u.Size(), u.Name())
			}
			assert.Equal(t, tt.size, layout.Size)
			assert.Equal(t, uint32(4), layout.Alignment)
			assert.Zero(t, layout.Padding)
			assert.Equal(t, 4*tt.size, layout.ByteSize())
			assert.LessOrEqual(t, layout.Size, declarationOrderSize(tt.decls))
		})
	}
}

func TestPackUniformsEmpty(t *testing.T) {
	layout, err := PackUniforms(nil)
	require.NoError(t, err)
	assert.Zero(t, layout.Size)
	assert.Empty(t, layout.Uniforms)
}

func TestPackUniformsRejectsUnalignedArrays(t *testing.T) {
	_, err := PackUniforms(declareUniforms(t, uniformDecl{"u_Floats", metadata.UniformTypeFloatArray, 4}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrArrayAlignment))
}

func TestGenerateUniformStructDefinesText(t *testing.T) {
	layout, err := PackUniforms(declareUniforms(t,
		uniformDecl{"u_A", metadata.UniformTypeVec3, 0},
		uniformDecl{"u_B", metadata.UniformTypeFloat, 0},
		uniformDecl{"u_C", metadata.UniformTypeVec3, 0},
	))
	require.NoError(t, err)

	members, defines := GenerateUniformStructDefinesText(layout, "materials[0]")
	assert.Equal(t, "\tvec3 u_A;\n\tfloat u_B;\n\tvec3 u_C;\n\tint u_C_padding;\n", members)
	assert.Equal(t, "#define u_A materials[0].u_A\n#define u_B materials[0].u_B\n#define u_C materials[0].u_C\n", defines)

	_, defines = GenerateUniformStructDefinesText(layout, "")
	assert.Empty(t, defines)
}

func TestGenerateUniformStructPadding(t *testing.T) {
	layout, err := PackUniforms(declareUniforms(t,
		uniformDecl{"u_A", metadata.UniformTypeFloat, 0},
		uniformDecl{"u_B", metadata.UniformTypeFloat, 0},
	))
	require.NoError(t, err)
	members, _ := GenerateUniformStructDefinesText(layout, "")
	assert.Equal(t, "\tfloat u_A;\n\tfloat u_B;\n\tint u_B_padding0;\n\tint u_B_padding1;\n", members)

	arrays, err := PackUniforms(declareUniforms(t, uniformDecl{"u_Arr", metadata.UniformTypeVec4Array, 2}))
	require.NoError(t, err)
	arrays.Padding = 2
	members, _ = GenerateUniformStructDefinesText(arrays, "")
	assert.Equal(t, "\tvec4 u_Arr[ 2 ];\n\tint material_padding0;\n\tint material_padding1;\n", members)
}

func TestMaterialLayouts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.MaterialSystem = true
	ss := newTestSystem(t, cfg, software.New())
	c, err := LoadCatalog(ss)
	require.NoError(t, err)

	assert.Equal(t, uint32(12), c.GenericMaterial.Layout().Size)
	assert.Equal(t, uint32(16), c.LightMappingMaterial.Layout().Size)
	assert.Equal(t, uint32(4), c.SkyboxMaterial.Layout().Size)
	assert.Zero(t, c.ScreenMaterial.Layout().Size)
	// shaders outside the material system keep every uniform
	assert.Zero(t, c.Generic.Layout().Size)

	for _, u := range c.GenericMaterial.Layout().Uniforms {
		assert.Equal(t, metadata.UpdateTypeMaterialOrPush, u.UpdateType())
		assert.False(t, u.IsTexture())
	}
}
