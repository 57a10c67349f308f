package systems

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/** @brief A piece of GLSL copied verbatim in front of shader sources. */
type GLHeader struct {
	Name string
	Text string
}

/** @brief The headers generated once per process from the driver capabilities. */
type builtinHeaders struct {
	versionDeclaration        GLHeader
	computeVersionDeclaration GLHeader
	compat                    GLHeader
	engineConstants           GLHeader
	vertex                    GLHeader
	fragment                  GLHeader
	compute                   GLHeader
	world                     GLHeader
}

/** @brief Engine constants shared by every shader. */
const (
	MaxShadowMaps            = 5
	MaxRefLights             = 1024
	TileSize                 = 16
	MaxViews                 = 10
	MaxFrames                = 2
	MaxViewFrames            = MaxViews * MaxFrames
	MaxSurfaceCommandBatches = 4096
	MaxCommandCounters       = 64
)

type addedExtension struct {
	name       string
	minVersion int
}

var fragmentVertexExtensions = []addedExtension{
	{"EXT_gpu_shader4", 130},
	{"ARB_gpu_shader5", 400},
	{"ARB_texture_gather", 400},
	{"EXT_texture_integer", 0},
	{"ARB_texture_rg", 0},
	{"ARB_uniform_buffer_object", 140},
	{"ARB_bindless_texture", -1},
	// -1 because a 4.6 context names the core variables differently
	{"ARB_shader_draw_parameters", -1},
	{"ARB_shader_storage_buffer_object", 430},
}

var computeExtensions = []addedExtension{
	{"ARB_compute_shader", 430},
	{"EXT_gpu_shader4", 130},
	{"ARB_gpu_shader5", 400},
	{"ARB_uniform_buffer_object", 140},
	{"ARB_shader_storage_buffer_object", 430},
	{"ARB_shading_language_420pack", 420},
	{"ARB_explicit_uniform_location", 430},
	{"ARB_shader_image_load_store", 420},
	{"ARB_shader_atomic_counters", 420},
	{"ARB_shader_atomic_counter_ops", -1},
	{"ARB_bindless_texture", -1},
}

/**
 * @brief Parses a shading language version string such as "4.60 NVIDIA" or
 * "4.6" into the number used by #version, e.g. 460.
 */
func ParseShadingLanguageVersion(s string) (int, bool) {
	for _, field := range strings.Fields(s) {
		parts := strings.SplitN(field, ".", 3)
		if len(parts) < 2 {
			continue
		}
		v, err := semver.NewVersion(field)
		if err != nil {
			continue
		}
		minor := int(v.Minor())
		if len(parts[1]) == 1 {
			minor *= 10
		}
		return int(v.Major())*100 + minor, true
	}
	return 0, false
}

/** @brief Computes the driver signature stored in cache headers. */
func (ss *ShaderSystem) InitDriverInfo() {
	ss.driverHash = core.StringChecksum(ss.caps.Renderer + ss.caps.Version)
	ss.cacheInvalidated = false
}

/** @brief Reports whether the driver exposes the named extension to the shaders. */
func (ss *ShaderSystem) extensionAvailable(name string) bool {
	if name == "ARB_bindless_texture" {
		return ss.caps.BindlessTextures
	}
	_, ok := ss.caps.Extension(name)
	return ok
}

func (ss *ShaderSystem) addExtension(sb *strings.Builder, ext addedExtension) {
	if !ss.extensionAvailable(ext.name) {
		return
	}
	if ss.glslVersion < ext.minVersion || ext.minVersion == -1 {
		fmt.Fprintf(sb, "#extension GL_%s : require\n", ext.name)
	}
	fmt.Fprintf(sb, "#define HAVE_%s 1\n", ext.name)
}

// AddDefine appends a #define guarded by #ifndef. value may be nil, an
// integer, a float32 or a pair of float32.
func AddDefine(sb *strings.Builder, name string, value interface{}) {
	switch v := value.(type) {
	case nil:
		fmt.Fprintf(sb, "#ifndef %s\n#define %s\n#endif\n", name, name)
	case int:
		fmt.Fprintf(sb, "#ifndef %s\n#define %s %d\n#endif\n", name, name, v)
	case uint32:
		fmt.Fprintf(sb, "#ifndef %s\n#define %s %d\n#endif\n", name, name, v)
	case float32:
		fmt.Fprintf(sb, "#ifndef %s\n#define %s %.8e\n#endif\n", name, name, v)
	case [2]float32:
		fmt.Fprintf(sb, "#ifndef %s\n#define %s vec2(%.8e, %.8e)\n#endif\n", name, name, v[0], v[1])
	default:
		core.LogWarn("AddDefine: unsupported value type %T for %s", value, name)
	}
}

// AddConst appends a typed GLSL constant.
func AddConst(sb *strings.Builder, name string, value interface{}) {
	switch v := value.(type) {
	case int:
		fmt.Fprintf(sb, "const int %s = %d;\n", name, v)
	case float32:
		fmt.Fprintf(sb, "const float %s = %.8e;\n", name, v)
	case [2]float32:
		fmt.Fprintf(sb, "const vec2 %s = vec2(%.8e, %.8e);\n", name, v[0], v[1])
	default:
		core.LogWarn("AddConst: unsupported value type %T for %s", value, name)
	}
}

func (ss *ShaderSystem) genVersionDeclaration(extensions []addedExtension) string {
	var sb strings.Builder
	profile := ""
	if ss.glslVersion >= 150 {
		if ss.caps.CoreProfile {
			profile = "core"
		} else {
			profile = "compatibility"
		}
	}
	fmt.Fprintf(&sb, "#version %d %s\n\n", ss.glslVersion, profile)
	for _, ext := range extensions {
		ss.addExtension(&sb, ext)
	}
	return sb.String()
}

func (ss *ShaderSystem) genCompatHeader() string {
	var sb strings.Builder
	// functions missing in early GLSL
	if ss.glslVersion <= 120 {
		sb.WriteString("float smoothstep(float edge0, float edge1, float x) { float t = clamp((x - edge0) / (edge1 - edge0), 0.0, 1.0); return t * t * (3.0 - 2.0 * t); }\n")
	}
	if !ss.extensionAvailable("ARB_gpu_shader5") {
		sb.WriteString("#define unpackUnorm4x8( value ) ( ( vec4( value, value >> 8, value >> 16, value >> 24 ) & 0xFF ) / 255.0f )\n")
	}
	if ss.caps.Vendor == metadata.DriverVendorATI && ss.extensionAvailable("ARB_shader_atomic_counter_ops") {
		for _, op := range []string{"Add", "Subtract", "Min", "Max", "And", "Or", "Xor", "Exchange"} {
			fmt.Fprintf(&sb, "#define atomicCounter%sARB atomicCounter%s\n", op, op)
		}
	}
	return sb.String()
}

func (ss *ShaderSystem) genMaterialBindings(sb *strings.Builder) {
	if !ss.caps.MaterialSystem {
		return
	}
	AddDefine(sb, "BIND_MATERIALS", metadata.BufferBindMaterials)
	AddDefine(sb, "BIND_TEX_DATA", metadata.BufferBindTexData)
	AddDefine(sb, "BIND_LIGHTMAP_DATA", metadata.BufferBindLightmapData)
}

func (ss *ShaderSystem) genVertexHeader() string {
	var sb strings.Builder
	if ss.glslVersion > 120 {
		sb.WriteString("#define IN in\n" +
			"#define OUT(mode) mode out\n" +
			"#define textureCube texture\n" +
			"#define texture2D texture\n" +
			"#define texture2DProj textureProj\n" +
			"#define texture3D texture\n")
	} else {
		sb.WriteString("#define IN attribute\n" +
			"#define OUT(mode) varying\n")
	}
	if ss.extensionAvailable("ARB_shader_draw_parameters") {
		sb.WriteString("OUT(flat) int in_drawID;\n" +
			"OUT(flat) int in_baseInstance;\n" +
			"#define drawID gl_DrawIDARB\n" +
			"#define baseInstance gl_BaseInstanceARB\n\n")
	}
	ss.genMaterialBindings(&sb)
	return sb.String()
}

func (ss *ShaderSystem) genFragmentHeader() string {
	var sb strings.Builder
	switch {
	case ss.glslVersion > 120:
		sb.WriteString("#define IN(mode) mode in\n" +
			"#define DECLARE_OUTPUT(type) out type outputColor;\n" +
			"#define textureCube texture\n" +
			"#define texture2D texture\n" +
			"#define texture2DProj textureProj\n" +
			"#define texture3D texture\n")
	case ss.extensionAvailable("EXT_gpu_shader4"):
		sb.WriteString("#define IN(mode) varying\n" +
			"#define DECLARE_OUTPUT(type) varying out type outputColor;\n")
	default:
		sb.WriteString("#define IN(mode) varying\n" +
			"#define outputColor gl_FragColor\n" +
			"#define DECLARE_OUTPUT(type) /* empty*/\n")
	}
	if ss.caps.BindlessTextures {
		sb.WriteString("layout(bindless_sampler) uniform;\n")
	}
	if ss.extensionAvailable("ARB_shader_draw_parameters") {
		sb.WriteString("IN(flat) int in_drawID;\n" +
			"IN(flat) int in_baseInstance;\n" +
			"#define drawID in_drawID\n" +
			"#define baseInstance in_baseInstance\n\n")
	}
	ss.genMaterialBindings(&sb)
	return sb.String()
}

func (ss *ShaderSystem) genComputeHeader() string {
	var sb strings.Builder
	if ss.caps.MaterialSystem {
		AddDefine(&sb, "MAX_VIEWS", MaxViews)
		AddDefine(&sb, "MAX_FRAMES", MaxFrames)
		AddDefine(&sb, "MAX_VIEWFRAMES", MaxViewFrames)
		AddDefine(&sb, "MAX_SURFACE_COMMAND_BATCHES", MaxSurfaceCommandBatches)
		AddDefine(&sb, "MAX_COMMAND_COUNTERS", MaxCommandCounters)

		AddDefine(&sb, "BIND_SURFACE_DESCRIPTORS", metadata.BufferBindSurfaceDescriptors)
		AddDefine(&sb, "BIND_SURFACE_COMMANDS", metadata.BufferBindSurfaceCommands)
		AddDefine(&sb, "BIND_CULLED_COMMANDS", metadata.BufferBindCulledCommands)
		AddDefine(&sb, "BIND_SURFACE_BATCHES", metadata.BufferBindSurfaceBatches)
		AddDefine(&sb, "BIND_COMMAND_COUNTERS_ATOMIC", metadata.BufferBindCommandCountersAtomic)
		AddDefine(&sb, "BIND_COMMAND_COUNTERS_STORAGE", metadata.BufferBindCommandCountersStorage)
		AddDefine(&sb, "BIND_PORTAL_SURFACES", metadata.BufferBindPortalSurfaces)

		AddDefine(&sb, "BIND_DEBUG", metadata.BufferBindDebug)
	}
	if ss.caps.BindlessTextures {
		sb.WriteString("layout(bindless_image) uniform;\n")
	}
	return sb.String()
}

func (ss *ShaderSystem) genWorldHeader() string {
	var sb strings.Builder
	// compile-time values taken from the loaded world
	AddDefine(&sb, "MAX_SURFACE_COMMANDS", ss.renderer.MaxSurfaceCommands)
	return sb.String()
}

func (ss *ShaderSystem) genEngineConstants() string {
	var sb strings.Builder
	r := ss.renderer

	AddDefine(&sb, "r_AmbientScale", r.AmbientScale)
	AddDefine(&sb, "r_SpecularScale", r.SpecularScale)
	AddDefine(&sb, "r_zNear", r.ZNear)

	AddDefine(&sb, "M_PI", float32(math32.Pi))
	AddDefine(&sb, "MAX_SHADOWMAPS", MaxShadowMaps)
	AddDefine(&sb, "MAX_REF_LIGHTS", MaxRefLights)
	AddDefine(&sb, "NUM_LIGHT_LAYERS", r.LightLayers)
	AddDefine(&sb, "TILE_SIZE", TileSize)

	AddDefine(&sb, "r_FBufSize", [2]float32{float32(r.Width), float32(r.Height)})
	tileStep := [2]float32{0, 0}
	if r.Width > 0 && r.Height > 0 {
		tileStep = [2]float32{float32(TileSize) / float32(r.Width), float32(TileSize) / float32(r.Height)}
	}
	AddDefine(&sb, "r_tileStep", tileStep)

	if ss.caps.VertexSkinning {
		AddDefine(&sb, "r_vertexSkinning", 1)
		// each bone is a quaternion and a translation
		AddConst(&sb, "MAX_GLSL_BONES", 2*ss.caps.MaxVertexSkinningBones)
	} else {
		AddConst(&sb, "MAX_GLSL_BONES", 4)
	}

	if ss.config.NormalMapping {
		AddDefine(&sb, "r_normalMapping", 1)
	}
	if ss.config.SpecularMapping {
		AddDefine(&sb, "r_specularMapping", 1)
	}
	if ss.config.PhysicalMapping {
		AddDefine(&sb, "r_physicalMapping", 1)
	}
	return sb.String()
}

/** @brief Generates every header from the capabilities. Called once at initialization. */
func (ss *ShaderSystem) GenerateBuiltinHeaders() {
	ss.headers = builtinHeaders{
		versionDeclaration:        GLHeader{"GLVersionDeclaration", ss.genVersionDeclaration(fragmentVertexExtensions)},
		computeVersionDeclaration: GLHeader{"GLComputeVersionDeclaration", ss.genVersionDeclaration(computeExtensions)},
		compat:                    GLHeader{"GLCompatHeader", ss.genCompatHeader()},
		vertex:                    GLHeader{"GLVertexHeader", ss.genVertexHeader()},
		fragment:                  GLHeader{"GLFragmentHeader", ss.genFragmentHeader()},
		compute:                   GLHeader{"GLComputeHeader", ss.genComputeHeader()},
		world:                     GLHeader{"GLWorldHeader", ss.genWorldHeader()},
		engineConstants:           GLHeader{"GLEngineConstants", ss.genEngineConstants()},
	}
}

/** @brief Regenerates the world header after a world with different limits was loaded. */
func (ss *ShaderSystem) GenerateWorldHeaders(maxSurfaceCommands int) {
	ss.renderer.MaxSurfaceCommands = maxSurfaceCommands
	ss.headers.world = GLHeader{"GLWorldHeader", ss.genWorldHeader()}
}

/** @brief The headers placed in front of a stage source and the offset after the version declaration. */
func (ss *ShaderSystem) stageHeaders(stage metadata.ShaderStage) ([]GLHeader, int) {
	h := &ss.headers
	switch stage {
	case metadata.ShaderStageVertex:
		return []GLHeader{h.versionDeclaration, h.compat, h.engineConstants, h.vertex}, len(h.versionDeclaration.Text)
	case metadata.ShaderStageFragment:
		return []GLHeader{h.versionDeclaration, h.compat, h.engineConstants, h.fragment}, len(h.versionDeclaration.Text)
	case metadata.ShaderStageCompute:
		return []GLHeader{h.computeVersionDeclaration, h.compat, h.engineConstants, h.compute, h.world}, len(h.computeVersionDeclaration.Text)
	}
	return nil, 0
}
