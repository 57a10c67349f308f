package systems

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
)

func TestParseShadingLanguageVersion(t *testing.T) {
	tests := []struct {
		in      string
		version int
		ok      bool
	}{
		{"4.60 NVIDIA", 460, true},
		{"4.6", 460, true},
		{"1.20", 120, true},
		{"unknown", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		v, ok := ParseShadingLanguageVersion(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.version, v, tt.in)
	}
}

func TestAddDefineAndConst(t *testing.T) {
	var sb strings.Builder
	AddDefine(&sb, "FLAG", nil)
	AddDefine(&sb, "COUNT", 3)
	AddDefine(&sb, "SCALE", float32(1.5))
	AddDefine(&sb, "SIZE", [2]float32{1, 2})
	assert.Equal(t, "#ifndef FLAG\n#define FLAG\n#endif\n"+
		"#ifndef COUNT\n#define COUNT 3\n#endif\n"+
		"#ifndef SCALE\n#define SCALE 1.50000000e+00\n#endif\n"+
		"#ifndef SIZE\n#define SIZE vec2(1.00000000e+00, 2.00000000e+00)\n#endif\n", sb.String())

	sb.Reset()
	AddConst(&sb, "N", 3)
	AddConst(&sb, "F", float32(0.5))
	// unsupported values are skipped
	AddConst(&sb, "S", "text")
	assert.Equal(t, "const int N = 3;\nconst float F = 5.00000000e-01;\n", sb.String())
}

func TestBuiltinHeaders(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	h := ss.headers

	assert.True(t, strings.HasPrefix(h.versionDeclaration.Text, "#version 460 core\n\n"))
	assert.Contains(t, h.versionDeclaration.Text, "#extension GL_ARB_shader_draw_parameters : require\n")
	// core in 4.60, so only the define is emitted
	assert.Contains(t, h.versionDeclaration.Text, "#define HAVE_ARB_texture_gather 1\n")
	assert.NotContains(t, h.versionDeclaration.Text, "GL_ARB_texture_gather")
	assert.NotContains(t, h.versionDeclaration.Text, "bindless")

	assert.Contains(t, h.computeVersionDeclaration.Text, "#define HAVE_ARB_compute_shader 1\n")
	assert.Contains(t, h.engineConstants.Text, "const int MAX_GLSL_BONES = 512;\n")
	assert.Contains(t, h.engineConstants.Text, "#define r_vertexSkinning 1\n")
	assert.Contains(t, h.vertex.Text, "#define baseInstance gl_BaseInstanceARB\n")
	assert.Contains(t, h.fragment.Text, "#define baseInstance in_baseInstance\n")
	assert.NotContains(t, h.vertex.Text, "BIND_MATERIALS")
}

func TestBuiltinHeadersWithoutSkinning(t *testing.T) {
	backend := software.New(software.WithCapabilities(func(c *metadata.Capabilities) {
		c.VertexSkinning = false
	}))
	ss := newTestSystem(t, testConfig(t), backend)
	assert.Contains(t, ss.headers.engineConstants.Text, "const int MAX_GLSL_BONES = 4;\n")
	assert.NotContains(t, ss.headers.engineConstants.Text, "r_vertexSkinning")
}

func TestMaterialBindingsInHeaders(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shaders.MaterialSystem = true
	ss := newTestSystem(t, cfg, software.New())
	assert.Contains(t, ss.headers.vertex.Text, "#define BIND_MATERIALS 0\n")
	assert.Contains(t, ss.headers.compute.Text, "#ifndef MAX_VIEWS\n#define MAX_VIEWS 10\n#endif\n")
}

func TestGenerateWorldHeaders(t *testing.T) {
	ss := newTestSystem(t, testConfig(t), software.New())
	ss.GenerateWorldHeaders(1024)
	assert.Contains(t, ss.headers.world.Text, "#define MAX_SURFACE_COMMANDS 1024\n")

	headers, offset := ss.stageHeaders(metadata.ShaderStageCompute)
	assert.Equal(t, ss.headers.world, headers[len(headers)-1])
	assert.Equal(t, len(ss.headers.computeVersionDeclaration.Text), offset)

	headers, _ = ss.stageHeaders(metadata.ShaderStageFragment)
	assert.Len(t, headers, 4)
}
