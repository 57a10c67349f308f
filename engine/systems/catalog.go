package systems

import (
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

const baseVertexAttribs = metadata.VertexAttributePosition | metadata.VertexAttributeTexCoord |
	metadata.VertexAttributeQTangent | metadata.VertexAttributeColor

// materialName is the name of the material system variant of a shader.
func materialName(name string) string {
	return name + "Material"
}

// registerDeformUniforms declares the uniforms read by the deform stage
// linked with every vertex program.
func (sh *Shader) registerDeformUniforms() *Uniform {
	return sh.NewUniform("u_Time", metadata.UniformTypeFloat, metadata.UpdateTypePush)
}

// bonesCount is the size of the bone array, two vec4 per bone.
func (ss *ShaderSystem) bonesCount() uint32 {
	if ss.caps.VertexSkinning {
		return uint32(2 * ss.caps.MaxVertexSkinningBones)
	}
	return 4
}

/** @brief Uniforms shared by the vertex stages of most shaders. */
type vertexUniforms struct {
	ModelMatrix               *Uniform
	ModelViewProjectionMatrix *Uniform
	Bones                     *Uniform
	VertexInterpolation       *Uniform
	Time                      *Uniform
}

func (sh *Shader) registerVertexUniforms(skinning bool) vertexUniforms {
	v := vertexUniforms{
		ModelMatrix:               sh.NewUniform("u_ModelMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush),
		ModelViewProjectionMatrix: sh.NewUniform("u_ModelViewProjectionMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush),
	}
	if skinning {
		v.Bones = sh.NewUniformArray("u_Bones", metadata.UniformTypeVec4Array, sh.system.bonesCount(), metadata.UpdateTypePush)
		v.VertexInterpolation = sh.NewUniform("u_VertexInterpolation", metadata.UniformTypeFloat, metadata.UpdateTypePush)
	}
	v.Time = sh.registerDeformUniforms()
	return v
}

/** @brief Unlit drawing of a single texture with optional depth fade. */
type GenericShader struct {
	*Shader
	vertexUniforms

	TextureMatrix         *Uniform
	ViewOrigin            *Uniform
	ColorModulateColorGen *Uniform
	Color                 *Uniform
	AlphaThreshold        *Uniform
	DepthScale            *Uniform
	ColorMap              *Uniform
	DepthMap              *Uniform
}

func NewGenericShader(ss *ShaderSystem, material bool) *GenericShader {
	def := ShaderDefinition{Name: "generic", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: baseVertexAttribs}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("generic"), "generic", true
	}
	sh := ss.NewShader(def)
	s := &GenericShader{Shader: sh}

	s.vertexUniforms = sh.registerVertexUniforms(!material)
	s.TextureMatrix = sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeTexDataOrPush)
	s.ViewOrigin = sh.NewUniform("u_ViewOrigin", metadata.UniformTypeVec3, metadata.UpdateTypePush)
	s.ColorModulateColorGen = sh.NewUniform("u_ColorModulateColorGen", metadata.UniformTypeVec4, metadata.UpdateTypeMaterialOrPush)
	s.Color = sh.NewUniform("u_Color", metadata.UniformTypeVec4, metadata.UpdateTypeMaterialOrPush)
	s.AlphaThreshold = sh.NewUniform("u_AlphaThreshold", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.DepthScale = sh.NewUniform("u_DepthScale", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ColorMap = sh.NewUniform("u_ColorMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindDiffuseMap)
	s.DepthMap = sh.NewUniform("u_DepthMap", metadata.UniformTypeSampler2D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindDepthMap)

	if !material {
		sh.RegisterMacro(metadata.MacroVertexSkinning)
		sh.RegisterMacro(metadata.MacroVertexAnimation)
	}
	sh.RegisterMacro(metadata.MacroTCGenEnvironment)
	sh.RegisterMacro(metadata.MacroDepthFade)
	return s
}

/** @brief Lighting of world and model surfaces from light maps, the light grid and dynamic lights. */
type LightMappingShader struct {
	*Shader
	vertexUniforms

	TextureMatrix            *Uniform
	ColorModulateColorGen    *Uniform
	Color                    *Uniform
	AlphaThreshold           *Uniform
	ViewOrigin               *Uniform
	SpecularExponent         *Uniform
	NormalScale              *Uniform
	ReliefDepthScale         *Uniform
	ReliefOffsetBias         *Uniform
	EnvironmentInterpolation *Uniform
	LightGridOrigin          *Uniform
	LightGridScale           *Uniform
	NumLights                *Uniform

	DiffuseMap      *Uniform
	NormalMap       *Uniform
	HeightMap       *Uniform
	MaterialMap     *Uniform
	GlowMap         *Uniform
	LightMap        *Uniform
	DeluxeMap       *Uniform
	LightGrid1      *Uniform
	LightGrid2      *Uniform
	EnvironmentMap0 *Uniform
	EnvironmentMap1 *Uniform
	LightTiles      *Uniform

	Lights *UniformBlock
}

func NewLightMappingShader(ss *ShaderSystem, material bool) *LightMappingShader {
	def := ShaderDefinition{Name: "lightMapping", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: baseVertexAttribs}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("lightMapping"), "lightMapping", true
	}
	sh := ss.NewShader(def)
	s := &LightMappingShader{Shader: sh}

	s.vertexUniforms = sh.registerVertexUniforms(!material)
	s.TextureMatrix = sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeTexDataOrPush)
	s.ColorModulateColorGen = sh.NewUniform("u_ColorModulateColorGen", metadata.UniformTypeVec4, metadata.UpdateTypeMaterialOrPush)
	s.Color = sh.NewUniform("u_Color", metadata.UniformTypeVec4, metadata.UpdateTypeMaterialOrPush)
	s.NormalScale = sh.NewUniform("u_NormalScale", metadata.UniformTypeVec3, metadata.UpdateTypeMaterialOrPush)
	s.AlphaThreshold = sh.NewUniform("u_AlphaThreshold", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.SpecularExponent = sh.NewUniform("u_SpecularExponent", metadata.UniformTypeVec2, metadata.UpdateTypeMaterialOrPush)
	s.ReliefDepthScale = sh.NewUniform("u_ReliefDepthScale", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ReliefOffsetBias = sh.NewUniform("u_ReliefOffsetBias", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ViewOrigin = sh.NewUniform("u_ViewOrigin", metadata.UniformTypeVec3, metadata.UpdateTypePush)
	s.EnvironmentInterpolation = sh.NewUniform("u_EnvironmentInterpolation", metadata.UniformTypeFloat, metadata.UpdateTypePush)
	s.LightGridOrigin = sh.NewUniform("u_LightGridOrigin", metadata.UniformTypeVec3, metadata.UpdateTypeConst)
	s.LightGridScale = sh.NewUniform("u_LightGridScale", metadata.UniformTypeVec3, metadata.UpdateTypeConst)
	s.NumLights = sh.NewUniform("u_numLights", metadata.UniformTypeInt, metadata.UpdateTypeFrame)

	s.DiffuseMap = sh.NewUniform("u_DiffuseMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindDiffuseMap)
	s.NormalMap = sh.NewUniform("u_NormalMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindNormalMap)
	s.HeightMap = sh.NewUniform("u_HeightMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindHeightMap)
	s.MaterialMap = sh.NewUniform("u_MaterialMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindMaterialMap)
	s.GlowMap = sh.NewUniform("u_GlowMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindGlowMap)
	s.LightMap = sh.NewUniform("u_LightMap", metadata.UniformTypeSampler2D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindLightMap)
	s.DeluxeMap = sh.NewUniform("u_DeluxeMap", metadata.UniformTypeSampler2D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindDeluxeMap)
	s.LightGrid1 = sh.NewUniform("u_LightGrid1", metadata.UniformTypeSampler3D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindLightMap)
	s.LightGrid2 = sh.NewUniform("u_LightGrid2", metadata.UniformTypeSampler3D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindDeluxeMap)
	s.EnvironmentMap0 = sh.NewUniform("u_EnvironmentMap0", metadata.UniformTypeSamplerCube, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindEnvironmentMap0)
	s.EnvironmentMap1 = sh.NewUniform("u_EnvironmentMap1", metadata.UniformTypeSamplerCube, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindEnvironmentMap1)
	s.LightTiles = sh.NewUniform("u_LightTiles", metadata.UniformTypeUSampler3D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindLightTiles)

	s.Lights = sh.NewUniformBlock("u_Lights", metadata.BufferBindLights)

	sh.RegisterMacro(metadata.MacroBSPSurface)
	if !material {
		sh.RegisterMacro(metadata.MacroVertexSkinning)
		sh.RegisterMacro(metadata.MacroVertexAnimation)
	}
	sh.RegisterMacro(metadata.MacroDeluxeMapping)
	sh.RegisterMacro(metadata.MacroGridDeluxeMapping)
	sh.RegisterMacro(metadata.MacroGridLighting)
	sh.RegisterMacro(metadata.MacroHeightmapInNormalmap)
	sh.RegisterMacro(metadata.MacroReliefMapping)
	sh.RegisterMacro(metadata.MacroReflectiveSpecular)
	sh.RegisterMacro(metadata.MacroPhysicalMapping)
	return s
}

/** @brief Environment reflections from a cube map. */
type ReflectionShader struct {
	*Shader
	vertexUniforms

	TextureMatrix    *Uniform
	ViewOrigin       *Uniform
	CameraPosition   *Uniform
	NormalScale      *Uniform
	ReliefDepthScale *Uniform
	ReliefOffsetBias *Uniform
	ColorMapCube     *Uniform
	NormalMap        *Uniform
	HeightMap        *Uniform
}

func NewReflectionShader(ss *ShaderSystem, material bool) *ReflectionShader {
	def := ShaderDefinition{Name: "reflection", MainShaderName: "reflection_CB", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: baseVertexAttribs}
	if material {
		def.Name, def.UseMaterialSystem = materialName("reflection"), true
	}
	sh := ss.NewShader(def)
	s := &ReflectionShader{Shader: sh}

	s.vertexUniforms = sh.registerVertexUniforms(!material)
	s.TextureMatrix = sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeTexDataOrPush)
	s.ViewOrigin = sh.NewUniform("u_ViewOrigin", metadata.UniformTypeVec3, metadata.UpdateTypePush)
	s.CameraPosition = sh.NewUniform("u_CameraPosition", metadata.UniformTypeVec3, metadata.UpdateTypePush)
	s.NormalScale = sh.NewUniform("u_NormalScale", metadata.UniformTypeVec3, metadata.UpdateTypeMaterialOrPush)
	s.ReliefDepthScale = sh.NewUniform("u_ReliefDepthScale", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ReliefOffsetBias = sh.NewUniform("u_ReliefOffsetBias", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ColorMapCube = sh.NewUniform("u_ColorMapCube", metadata.UniformTypeSamplerCube, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindDiffuseMap)
	s.NormalMap = sh.NewUniform("u_NormalMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindNormalMap)
	s.HeightMap = sh.NewUniform("u_HeightMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindHeightMap)

	if !material {
		sh.RegisterMacro(metadata.MacroVertexSkinning)
		sh.RegisterMacro(metadata.MacroVertexAnimation)
	}
	sh.RegisterMacro(metadata.MacroHeightmapInNormalmap)
	sh.RegisterMacro(metadata.MacroReliefMapping)
	return s
}

/** @brief Sky boxes with an optional cloud layer. */
type SkyboxShader struct {
	*Shader

	ModelViewProjectionMatrix *Uniform
	Time                      *Uniform
	TextureMatrix             *Uniform
	CloudHeight               *Uniform
	UseCloudMap               *Uniform
	AlphaThreshold            *Uniform
	ColorMapCube              *Uniform
	CloudMap                  *Uniform
}

func NewSkyboxShader(ss *ShaderSystem, material bool) *SkyboxShader {
	def := ShaderDefinition{Name: "skybox", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: metadata.VertexAttributePosition}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("skybox"), "skybox", true
	}
	sh := ss.NewShader(def)
	return &SkyboxShader{
		Shader:                    sh,
		ModelViewProjectionMatrix: sh.NewUniform("u_ModelViewProjectionMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush),
		Time:                      sh.registerDeformUniforms(),
		TextureMatrix:             sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeTexDataOrPush),
		CloudHeight:               sh.NewUniform("u_CloudHeight", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush),
		UseCloudMap:               sh.NewUniform("u_UseCloudMap", metadata.UniformTypeBool, metadata.UpdateTypeMaterialOrPush),
		AlphaThreshold:            sh.NewUniform("u_AlphaThreshold", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush),
		ColorMapCube:              sh.NewUniform("u_ColorMapCube", metadata.UniformTypeSamplerCube, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindDiffuseMap),
		CloudMap:                  sh.NewUniform("u_CloudMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindNormalMap),
	}
}

/** @brief Quake 3 style fog volumes. */
type FogQuake3Shader struct {
	*Shader
	vertexUniforms

	ColorGlobal       *Uniform
	FogDistanceVector *Uniform
	FogDepthVector    *Uniform
	FogEyeT           *Uniform
	FogMap            *Uniform
}

func NewFogQuake3Shader(ss *ShaderSystem, material bool) *FogQuake3Shader {
	def := ShaderDefinition{Name: "fogQuake3", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: baseVertexAttribs}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("fogQuake3"), "fogQuake3", true
	}
	sh := ss.NewShader(def)
	s := &FogQuake3Shader{Shader: sh}

	s.vertexUniforms = sh.registerVertexUniforms(!material)
	s.ColorGlobal = sh.NewUniform("u_ColorGlobal", metadata.UniformTypeVec4, metadata.UpdateTypeMaterialOrPush)
	s.FogDistanceVector = sh.NewUniform("u_FogDistanceVector", metadata.UniformTypeVec4, metadata.UpdateTypePush)
	s.FogDepthVector = sh.NewUniform("u_FogDepthVector", metadata.UniformTypeVec4, metadata.UpdateTypePush)
	s.FogEyeT = sh.NewUniform("u_FogEyeT", metadata.UniformTypeFloat, metadata.UpdateTypePush)
	s.FogMap = sh.NewUniform("u_FogMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindDiffuseMap)

	if !material {
		sh.RegisterMacro(metadata.MacroVertexSkinning)
		sh.RegisterMacro(metadata.MacroVertexAnimation)
	}
	return s
}

/** @brief Refraction of the current frame through a normal map. */
type HeatHazeShader struct {
	*Shader
	vertexUniforms

	TextureMatrix             *Uniform
	ModelViewMatrixTranspose  *Uniform
	ProjectionMatrixTranspose *Uniform
	DeformMagnitude           *Uniform
	NormalScale               *Uniform
	ReliefDepthScale          *Uniform
	ReliefOffsetBias          *Uniform
	CurrentMap                *Uniform
	NormalMap                 *Uniform
	HeightMap                 *Uniform
}

func NewHeatHazeShader(ss *ShaderSystem, material bool) *HeatHazeShader {
	def := ShaderDefinition{Name: "heatHaze", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: baseVertexAttribs}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("heatHaze"), "heatHaze", true
	}
	sh := ss.NewShader(def)
	s := &HeatHazeShader{Shader: sh}

	s.vertexUniforms = sh.registerVertexUniforms(!material)
	s.TextureMatrix = sh.NewUniform("u_TextureMatrix", metadata.UniformTypeMat3x2, metadata.UpdateTypeTexDataOrPush)
	s.ModelViewMatrixTranspose = sh.NewUniform("u_ModelViewMatrixTranspose", metadata.UniformTypeMat4, metadata.UpdateTypePush)
	s.ProjectionMatrixTranspose = sh.NewUniform("u_ProjectionMatrixTranspose", metadata.UniformTypeMat4, metadata.UpdateTypePush)
	s.DeformMagnitude = sh.NewUniform("u_DeformMagnitude", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.NormalScale = sh.NewUniform("u_NormalScale", metadata.UniformTypeVec3, metadata.UpdateTypeMaterialOrPush)
	s.ReliefDepthScale = sh.NewUniform("u_ReliefDepthScale", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.ReliefOffsetBias = sh.NewUniform("u_ReliefOffsetBias", metadata.UniformTypeFloat, metadata.UpdateTypeMaterialOrPush)
	s.CurrentMap = sh.NewUniform("u_CurrentMap", metadata.UniformTypeSampler2D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindDiffuseMap)
	s.NormalMap = sh.NewUniform("u_NormalMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindNormalMap)
	s.HeightMap = sh.NewUniform("u_HeightMap", metadata.UniformTypeSampler2D, metadata.UpdateTypeTexDataOrPush).WithTextureUnit(metadata.TextureBindHeightMap)

	if !material {
		sh.RegisterMacro(metadata.MacroVertexSkinning)
		sh.RegisterMacro(metadata.MacroVertexAnimation)
	}
	return s
}

/** @brief Full screen copy of the current frame. */
type ScreenShader struct {
	*Shader

	ModelViewProjectionMatrix *Uniform
	Time                      *Uniform
	CurrentMap                *Uniform
}

func NewScreenShader(ss *ShaderSystem, material bool) *ScreenShader {
	def := ShaderDefinition{Name: "screen", Stages: metadata.ShaderStageVertexFragment, VertexAttribs: metadata.VertexAttributePosition}
	if material {
		def.Name, def.MainShaderName, def.UseMaterialSystem = materialName("screen"), "screen", true
	}
	sh := ss.NewShader(def)
	return &ScreenShader{
		Shader:                    sh,
		ModelViewProjectionMatrix: sh.NewUniform("u_ModelViewProjectionMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush),
		Time:                      sh.registerDeformUniforms(),
		CurrentMap:                sh.NewUniform("u_CurrentMap", metadata.UniformTypeSampler2D, metadata.UpdateTypePush).WithTextureUnit(metadata.TextureBindDiffuseMap),
	}
}

/** @brief Gpu frustum and occlusion culling of the material system surfaces. */
type CullShader struct {
	*Shader

	Frame                   *Uniform
	ViewID                  *Uniform
	SurfaceDescriptorsCount *Uniform
	SurfaceCommandsOffset   *Uniform
	Frustum                 *Uniform
	UseFrustumCulling       *Uniform
	UseOcclusionCulling     *Uniform
	CameraPosition          *Uniform
	ModelViewMatrix         *Uniform
	FirstPortalGroup        *Uniform
	TotalPortals            *Uniform
	ViewWidth               *Uniform
	ViewHeight              *Uniform
	P00                     *Uniform
	P11                     *Uniform
}

func NewCullShader(ss *ShaderSystem) *CullShader {
	sh := ss.NewShader(ShaderDefinition{Name: "cull", Stages: metadata.ShaderStageCompute})
	return &CullShader{
		Shader:                  sh,
		Frame:                   sh.NewUniform("u_Frame", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		ViewID:                  sh.NewUniform("u_ViewID", metadata.UniformTypeUint, metadata.UpdateTypePush),
		SurfaceDescriptorsCount: sh.NewUniform("u_SurfaceDescriptorsCount", metadata.UniformTypeUint, metadata.UpdateTypePush),
		SurfaceCommandsOffset:   sh.NewUniform("u_SurfaceCommandsOffset", metadata.UniformTypeUint, metadata.UpdateTypePush),
		Frustum:                 sh.NewUniformArray("u_Frustum", metadata.UniformTypeVec4Array, 6, metadata.UpdateTypePush),
		UseFrustumCulling:       sh.NewUniform("u_UseFrustumCulling", metadata.UniformTypeBool, metadata.UpdateTypePush),
		UseOcclusionCulling:     sh.NewUniform("u_UseOcclusionCulling", metadata.UniformTypeBool, metadata.UpdateTypePush),
		CameraPosition:          sh.NewUniform("u_CameraPosition", metadata.UniformTypeVec3, metadata.UpdateTypePush),
		ModelViewMatrix:         sh.NewUniform("u_ModelViewMatrix", metadata.UniformTypeMat4, metadata.UpdateTypePush),
		FirstPortalGroup:        sh.NewUniform("u_FirstPortalGroup", metadata.UniformTypeUint, metadata.UpdateTypeConst),
		TotalPortals:            sh.NewUniform("u_TotalPortals", metadata.UniformTypeUint, metadata.UpdateTypeConst),
		ViewWidth:               sh.NewUniform("u_ViewWidth", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		ViewHeight:              sh.NewUniform("u_ViewHeight", metadata.UniformTypeUint, metadata.UpdateTypeFrame),
		P00:                     sh.NewUniform("u_P00", metadata.UniformTypeFloat, metadata.UpdateTypeFrame),
		P11:                     sh.NewUniform("u_P11", metadata.UniformTypeFloat, metadata.UpdateTypeFrame),
	}
}

/** @brief The shaders of the engine, by name. */
type Catalog struct {
	Generic      *GenericShader
	LightMapping *LightMappingShader
	Reflection   *ReflectionShader
	Skybox       *SkyboxShader
	FogQuake3    *FogQuake3Shader
	HeatHaze     *HeatHazeShader
	Screen       *ScreenShader

	GenericMaterial      *GenericShader
	LightMappingMaterial *LightMappingShader
	ReflectionMaterial   *ReflectionShader
	SkyboxMaterial       *SkyboxShader
	FogQuake3Material    *FogQuake3Shader
	HeatHazeMaterial     *HeatHazeShader
	ScreenMaterial       *ScreenShader

	Cull *CullShader
}

/**
 * @brief Registers every engine shader and queues it for building. Material
 * variants and the culling shader only exist when the material system is
 * used.
 */
func LoadCatalog(ss *ShaderSystem) (*Catalog, error) {
	c := &Catalog{
		Generic:      NewGenericShader(ss, false),
		LightMapping: NewLightMappingShader(ss, false),
		Reflection:   NewReflectionShader(ss, false),
		Skybox:       NewSkyboxShader(ss, false),
		FogQuake3:    NewFogQuake3Shader(ss, false),
		HeatHaze:     NewHeatHazeShader(ss, false),
		Screen:       NewScreenShader(ss, false),
	}
	shaders := []*Shader{
		c.Generic.Shader, c.LightMapping.Shader, c.Reflection.Shader, c.Skybox.Shader,
		c.FogQuake3.Shader, c.HeatHaze.Shader, c.Screen.Shader,
	}

	if ss.caps.MaterialSystem {
		c.GenericMaterial = NewGenericShader(ss, true)
		c.LightMappingMaterial = NewLightMappingShader(ss, true)
		c.ReflectionMaterial = NewReflectionShader(ss, true)
		c.SkyboxMaterial = NewSkyboxShader(ss, true)
		c.FogQuake3Material = NewFogQuake3Shader(ss, true)
		c.HeatHazeMaterial = NewHeatHazeShader(ss, true)
		c.ScreenMaterial = NewScreenShader(ss, true)
		shaders = append(shaders,
			c.GenericMaterial.Shader, c.LightMappingMaterial.Shader, c.ReflectionMaterial.Shader,
			c.SkyboxMaterial.Shader, c.FogQuake3Material.Shader, c.HeatHazeMaterial.Shader,
			c.ScreenMaterial.Shader)

		if ss.caps.ComputeShader {
			c.Cull = NewCullShader(ss)
			shaders = append(shaders, c.Cull.Shader)
		}
	}

	for _, sh := range shaders {
		if err := ss.RegisterShader(sh); err != nil {
			return nil, err
		}
		ss.MarkProgramForBuilding(sh)
	}
	return c, nil
}
