package metadata

/** @brief The GLSL type of a uniform. */
type UniformType int

const (
	UniformTypeInt UniformType = iota
	UniformTypeUint
	UniformTypeBool
	UniformTypeFloat
	UniformTypeFloatArray
	UniformTypeVec2
	UniformTypeVec3
	UniformTypeVec4
	UniformTypeVec4Array
	UniformTypeMat4
	UniformTypeMat4Array
	UniformTypeMat3x2
	UniformTypeMat3x4Array
	UniformTypeSampler2D
	UniformTypeSampler3D
	UniformTypeUSampler3D
	UniformTypeSamplerCube
)

type uniformTypeInfo struct {
	glsl      string
	words     uint32
	alignment uint32
	native    uint32
	array     bool
	sampler   bool
}

var uniformTypes = map[UniformType]uniformTypeInfo{
	UniformTypeInt:         {glsl: "int", words: 1, alignment: 1, native: 4},
	UniformTypeUint:        {glsl: "uint", words: 1, alignment: 1, native: 4},
	UniformTypeBool:        {glsl: "bool", words: 1, alignment: 1, native: 4},
	UniformTypeFloat:       {glsl: "float", words: 1, alignment: 1, native: 4},
	UniformTypeFloatArray:  {glsl: "float", words: 1, alignment: 1, native: 4, array: true},
	UniformTypeVec2:        {glsl: "vec2", words: 2, alignment: 2, native: 8},
	UniformTypeVec3:        {glsl: "vec3", words: 3, alignment: 4, native: 12},
	UniformTypeVec4:        {glsl: "vec4", words: 4, alignment: 4, native: 16},
	UniformTypeVec4Array:   {glsl: "vec4", words: 4, alignment: 4, native: 16, array: true},
	UniformTypeMat4:        {glsl: "mat4", words: 16, alignment: 4, native: 64},
	UniformTypeMat4Array:   {glsl: "mat4", words: 16, alignment: 4, native: 64, array: true},
	UniformTypeMat3x2:      {glsl: "mat3x2", words: 12, alignment: 4, native: 24},
	UniformTypeMat3x4Array: {glsl: "mat3x4", words: 12, alignment: 4, native: 48, array: true},
	UniformTypeSampler2D:   {glsl: "sampler2D", words: 1, alignment: 1, native: 8, sampler: true},
	UniformTypeSampler3D:   {glsl: "sampler3D", words: 1, alignment: 1, native: 8, sampler: true},
	UniformTypeUSampler3D:  {glsl: "usampler3D", words: 1, alignment: 1, native: 8, sampler: true},
	UniformTypeSamplerCube: {glsl: "samplerCube", words: 1, alignment: 1, native: 8, sampler: true},
}

/** @brief The type name as written in GLSL, without array brackets. */
func (t UniformType) GLSLType() string {
	return uniformTypes[t].glsl
}

func (t UniformType) String() string {
	if t.IsArray() {
		return t.GLSLType() + "[]"
	}
	return t.GLSLType()
}

/** @brief The packed size in 4-byte words. Samplers are 2 words when bindless. */
func (t UniformType) Words(bindless bool) uint32 {
	if bindless && t.IsSampler() {
		return 2
	}
	return uniformTypes[t].words
}

/** @brief The packed alignment in 4-byte words. */
func (t UniformType) Alignment(bindless bool) uint32 {
	if bindless && t.IsSampler() {
		return 2
	}
	return uniformTypes[t].alignment
}

/** @brief The size in bytes handed to the native set-uniform call, per element. */
func (t UniformType) NativeSize() uint32 {
	return uniformTypes[t].native
}

func (t UniformType) IsArray() bool {
	return uniformTypes[t].array
}

func (t UniformType) IsSampler() bool {
	return uniformTypes[t].sampler
}

/**
 * @brief How often a uniform changes, ordered coarse to fine. It decides which
 * buffer a uniform is delivered through.
 */
type UpdateType int

const (
	/** @brief Set once per map. */
	UpdateTypeConst UpdateType = iota
	/** @brief Set once per frame. */
	UpdateTypeFrame
	/** @brief Set per draw, always through push/direct calls. */
	UpdateTypePush
	/** @brief Part of the material when the material system is used, push otherwise. */
	UpdateTypeMaterialOrPush
	/** @brief Part of the texture data when the material system is used, push otherwise. */
	UpdateTypeTexDataOrPush
	/** @brief Only used by the legacy renderer paths. */
	UpdateTypeLegacy
	/** @brief Never written. */
	UpdateTypeSkip
)

/** @brief Disables the update type filter of Shader.WriteUniformsToBuffer. */
const UpdateTypeAll UpdateType = -1

func (u UpdateType) String() string {
	switch u {
	case UpdateTypeConst:
		return "CONST"
	case UpdateTypeFrame:
		return "FRAME"
	case UpdateTypePush:
		return "PUSH"
	case UpdateTypeMaterialOrPush:
		return "MATERIAL_OR_PUSH"
	case UpdateTypeTexDataOrPush:
		return "TEXDATA_OR_PUSH"
	case UpdateTypeLegacy:
		return "LEGACY"
	case UpdateTypeSkip:
		return "SKIP"
	case UpdateTypeAll:
		return "ALL"
	}
	return "UNKNOWN"
}

/** @brief Selects which uniforms Shader.WriteUniformsToBuffer serializes. */
type BufferMode int

const (
	/** @brief The packed per-material struct. */
	BufferModeMaterial BufferMode = iota
	/** @brief The global uniforms delivered through the push buffer. */
	BufferModePush
)

/** @brief Fixed binding points of the buffers injected into shader text. */
const (
	BufferBindMaterials      uint32 = 0
	BufferBindTexData        uint32 = 1
	BufferBindLightmapData   uint32 = 2
	BufferBindLights         uint32 = 3
	BufferBindSurfaceBatches uint32 = 4
	BufferBindGlobalData     uint32 = 5
)

/** @brief Fixed binding points of the buffers used by the culling compute shaders. */
const (
	BufferBindSurfaceDescriptors     uint32 = 0
	BufferBindSurfaceCommands        uint32 = 1
	BufferBindCulledCommands         uint32 = 2
	BufferBindCommandCountersAtomic  uint32 = 6
	BufferBindCommandCountersStorage uint32 = 7
	BufferBindPortalSurfaces         uint32 = 8
	BufferBindDebug                  uint32 = 10
)

/** @brief Texture units used by the catalog shaders. */
const (
	TextureBindDiffuseMap uint32 = iota
	TextureBindNormalMap
	TextureBindHeightMap
	TextureBindMaterialMap
	TextureBindLightMap
	TextureBindDeluxeMap
	TextureBindGlowMap
	TextureBindEnvironmentMap0
	TextureBindEnvironmentMap1
	TextureBindLightTiles
	TextureBindLights
	TextureBindDepthMap
)
