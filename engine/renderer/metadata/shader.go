package metadata

import "strings"

/** @brief Shader stages available in the system. */
type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageGeometry ShaderStage = 0x00000002
	ShaderStageFragment ShaderStage = 0x00000004
	ShaderStageCompute  ShaderStage = 0x0000008
)

/** @brief The stages a regular draw program links together. */
const ShaderStageVertexFragment = ShaderStageVertex | ShaderStageFragment

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageGeometry:
		return "geometry"
	case ShaderStageFragment:
		return "fragment"
	case ShaderStageCompute:
		return "compute"
	}
	var parts []string
	for _, st := range []ShaderStage{ShaderStageVertex, ShaderStageGeometry, ShaderStageFragment, ShaderStageCompute} {
		if s&st != 0 {
			parts = append(parts, st.String())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

/** @brief The file name suffix of the stage source, e.g. generic_vp.glsl. */
func (s ShaderStage) Postfix() string {
	switch s {
	case ShaderStageVertex:
		return "_vp"
	case ShaderStageFragment:
		return "_fp"
	case ShaderStageCompute:
		return "_cp"
	case ShaderStageGeometry:
		return "_gp"
	}
	return ""
}

/** @brief Reports whether every stage of other is part of s. */
func (s ShaderStage) Has(other ShaderStage) bool {
	return s&other == other
}

/** @brief Vertex inputs a program can consume. The bit index is the attribute location. */
type VertexAttribute uint32

const (
	VertexAttributePosition VertexAttribute = 1 << iota
	VertexAttributeTexCoord
	VertexAttributeQTangent
	VertexAttributeColor
	VertexAttributeBoneFactors
	VertexAttributePosition2
	VertexAttributeQTangent2
	VertexAttributeFogSurface
	VertexAttributeFogPlanes
)

/** @brief The attributes interpolated between two frames by vertex animation. */
const VertexAttributeInterpolation = VertexAttributePosition2 | VertexAttributeQTangent2

/** @brief The names bound to attribute locations before a program is linked, in location order. */
var VertexAttributeNames = []string{
	"attr_Position",
	"attr_TexCoord0",
	"attr_QTangent",
	"attr_Color",
	"attr_BoneFactors",
	"attr_Position2",
	"attr_QTangent2",
	"attr_FogSurface",
	"attr_FogPlanes",
}

/** @brief The driver vendor, which decides the format of compiler info logs. */
type DriverVendor int

const (
	DriverVendorUnknown DriverVendor = iota
	DriverVendorNvidia
	DriverVendorMesa
	DriverVendorATI
	DriverVendorIntel
)

func (v DriverVendor) String() string {
	switch v {
	case DriverVendorNvidia:
		return "NVIDIA"
	case DriverVendorMesa:
		return "Mesa"
	case DriverVendorATI:
		return "ATI"
	case DriverVendorIntel:
		return "Intel"
	}
	return "unknown"
}

/** @brief A shading language extension the engine may use. */
type Extension struct {
	/** @brief Name without the GL_ prefix, e.g. ARB_texture_gather. */
	Name string
	/** @brief The GLSL version the feature became core in, or -1 if it never did. */
	MinVersion int
	/** @brief Whether the driver exposes it. */
	Available bool
}

/**
 * @brief What the graphics backend can do. Filled by the backend once the
 * context exists and read by the shader system to decide headers, packing
 * and caching.
 */
type Capabilities struct {
	Vendor DriverVendor
	/** @brief The renderer string, part of the driver signature. */
	Renderer string
	/** @brief The version string, part of the driver signature. */
	Version string
	/** @brief The raw shading language version string, e.g. "4.60 NVIDIA". */
	ShadingLanguageVersion string
	/** @brief The GLSL version as an integer, e.g. 460. */
	GLSLVersion int
	/** @brief Core or compatibility profile. */
	CoreProfile bool

	/** @brief Program binaries can be retrieved and loaded back. */
	ProgramBinary       bool
	UniformBufferObject bool
	ShaderStorageBuffer bool
	ComputeShader       bool
	/** @brief Samplers are 64-bit handles. */
	BindlessTextures bool
	/** @brief CONST and FRAME uniforms come from one global buffer. */
	PushBuffer bool
	/** @brief Draws are batched through the material system. */
	MaterialSystem bool
	/** @brief Skeletal animation on the gpu. */
	VertexSkinning         bool
	MaxVertexSkinningBones int
	MaxUniformBlockSize    int

	Extensions []Extension
}

/** @brief Returns the extension with the given name, if the driver reports it. */
func (c *Capabilities) Extension(name string) (Extension, bool) {
	for _, e := range c.Extensions {
		if e.Name == name {
			return e, e.Available
		}
	}
	return Extension{}, false
}
