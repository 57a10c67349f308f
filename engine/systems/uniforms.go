package systems

import (
	"bytes"
	"encoding/binary"
	stdmath "math"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/math"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/**
 * @brief A typed uniform owned by a logical shader. The value last written is
 * kept as raw 32-bit words, which are either uploaded through the backend or
 * serialized into a shared buffer.
 */
type Uniform struct {
	shader *Shader

	name        string
	uniformType metadata.UniformType
	/** @brief 0 for a scalar, the element count for an array. */
	components uint32
	update     metadata.UpdateType
	/** @brief Texture unit assigned once after link, -1 if none. */
	textureUnit int32

	/** @brief The position of the uniform in the shader's location tables. */
	locationIndex int
	/** @brief Byte offset of the uniform in a program's firewall. */
	firewallIndex uint32

	/** @brief Unpadded size of one element in words. */
	baseSize  uint32
	size      uint32
	alignment uint32
	/** @brief Word offset inside the packed layout, set by PackUniforms. */
	offset uint32
	placed bool

	value []uint32
}

/** @brief Declares a scalar uniform of the shader. */
func (sh *Shader) NewUniform(name string, uniformType metadata.UniformType, update metadata.UpdateType) *Uniform {
	return sh.registerUniform(name, uniformType, 0, update)
}

/** @brief Declares an array uniform with count elements. */
func (sh *Shader) NewUniformArray(name string, uniformType metadata.UniformType, count uint32, update metadata.UpdateType) *Uniform {
	if !uniformType.IsArray() {
		core.LogWarn("uniform %s of shader %s is declared as an array of non-array type %s", name, sh.name, uniformType)
	}
	return sh.registerUniform(name, uniformType, count, update)
}

func (sh *Shader) registerUniform(name string, uniformType metadata.UniformType, count uint32, update metadata.UpdateType) *Uniform {
	bindless := sh.system.caps.BindlessTextures
	u := &Uniform{
		shader:        sh,
		name:          name,
		uniformType:   uniformType,
		components:    count,
		update:        update,
		textureUnit:   -1,
		locationIndex: len(sh.uniforms),
		firewallIndex: sh.uniformStorageSize,
		baseSize:      uniformType.Words(bindless),
		alignment:     uniformType.Alignment(bindless),
	}
	if count > 0 {
		u.size = math.AlignUp(u.baseSize, 4)
	} else {
		u.size = u.baseSize
	}
	u.value = make([]uint32, u.shadowWords()*math.Max(1, count))

	sh.uniforms = append(sh.uniforms, u)
	sh.uniformStorageSize += uniformType.NativeSize() * math.Max(1, count)
	return u
}

/** @brief Binds the sampler to a fixed texture unit. Only valid for sampler uniforms. */
func (u *Uniform) WithTextureUnit(unit uint32) *Uniform {
	if !u.uniformType.IsSampler() {
		core.LogWarn("texture unit set on non-sampler uniform %s", u.name)
		return u
	}
	u.textureUnit = int32(unit)
	return u
}

func (u *Uniform) Name() string {
	return u.name
}

func (u *Uniform) Type() metadata.UniformType {
	return u.uniformType
}

func (u *Uniform) UpdateType() metadata.UpdateType {
	return u.update
}

/** @brief The element count, 0 for scalars. */
func (u *Uniform) Components() uint32 {
	return u.components
}

/** @brief Per-element size in words as placed by the packer, padding included. */
func (u *Uniform) Size() uint32 {
	return u.size
}

func (u *Uniform) Alignment() uint32 {
	return u.alignment
}

/** @brief The word offset in the packed layout the uniform belongs to. */
func (u *Uniform) Offset() uint32 {
	return u.offset
}

func (u *Uniform) IsTexture() bool {
	return u.uniformType.IsSampler()
}

/**
 * @brief Reports whether the uniform lives in the global buffer rather than in
 * the per-draw state. Samplers only do when they are bindless handles.
 */
func (u *Uniform) IsGlobal() bool {
	caps := u.shader.system.caps
	if !caps.PushBuffer || u.update > metadata.UpdateTypeFrame {
		return false
	}
	return !u.IsTexture() || caps.BindlessTextures
}

/** @brief The number of words needed to hold one element of the value. */
func (u *Uniform) shadowWords() uint32 {
	switch {
	case u.uniformType == metadata.UniformTypeMat3x2:
		return 6
	case u.uniformType.IsSampler():
		if u.shader.system.caps.BindlessTextures {
			return 2
		}
		return 1
	}
	return u.uniformType.Words(false)
}

/** @brief Reports whether the value is delivered through a buffer instead of a native call. */
func (u *Uniform) redirected() bool {
	sh := u.shader
	if sh.useMaterialSystem {
		switch u.update {
		case metadata.UpdateTypeMaterialOrPush, metadata.UpdateTypeTexDataOrPush:
			return true
		}
	}
	return sh.system.caps.PushBuffer && u.update <= metadata.UpdateTypeFrame
}

/** @brief Returns a copy of the shadow value. */
func (u *Uniform) Value() []uint32 {
	return append([]uint32(nil), u.value...)
}

func (u *Uniform) setValue(words []uint32, count int) {
	copy(u.value, words)
	if u.redirected() {
		return
	}
	u.upload(u.value[:len(words)], count)
}

func (u *Uniform) upload(words []uint32, count int) {
	sh := u.shader
	p := sh.currentProgram
	if p == nil {
		core.LogDebug("uniform %s of shader %s set without a bound program", u.name, sh.name)
		return
	}
	location := p.UniformLocations[u.locationIndex]
	if location < 0 {
		return
	}

	raw := wordsToBytes(words)
	firewall := p.UniformFirewall[u.firewallIndex:]
	if len(raw) <= len(firewall) && bytes.Equal(firewall[:len(raw)], raw) {
		return
	}
	copy(firewall, raw)
	sh.system.backend.SetUniform(location, u.uniformType, count, words)
}

func (u *Uniform) checkType(types ...metadata.UniformType) bool {
	for _, t := range types {
		if u.uniformType == t {
			return true
		}
	}
	core.LogWarn("uniform %s of shader %s is %s, cannot be set as %s", u.name, u.shader.name, u.uniformType, types[0])
	return false
}

func (u *Uniform) SetInt(v int32) {
	if u.checkType(metadata.UniformTypeInt) {
		u.setValue([]uint32{uint32(v)}, 1)
	}
}

func (u *Uniform) SetUint(v uint32) {
	if u.checkType(metadata.UniformTypeUint) {
		u.setValue([]uint32{v}, 1)
	}
}

func (u *Uniform) SetBool(v bool) {
	if !u.checkType(metadata.UniformTypeBool) {
		return
	}
	var w uint32
	if v {
		w = 1
	}
	u.setValue([]uint32{w}, 1)
}

func (u *Uniform) SetFloat(v float32) {
	if u.checkType(metadata.UniformTypeFloat) {
		u.setValue([]uint32{stdmath.Float32bits(v)}, 1)
	}
}

/** @brief Sets the first len(values) elements of a float array. */
func (u *Uniform) SetFloats(values []float32) {
	if !u.checkType(metadata.UniformTypeFloatArray) {
		return
	}
	values = values[:min(len(values), int(u.components))]
	u.setValue(floatsToWords(values...), len(values))
}

func (u *Uniform) SetVec2(v math.Vec2) {
	if u.checkType(metadata.UniformTypeVec2) {
		u.setValue(floatsToWords(v.X, v.Y), 1)
	}
}

func (u *Uniform) SetVec3(v math.Vec3) {
	if u.checkType(metadata.UniformTypeVec3) {
		u.setValue(floatsToWords(v.X, v.Y, v.Z), 1)
	}
}

func (u *Uniform) SetVec4(v math.Vec4) {
	if u.checkType(metadata.UniformTypeVec4) {
		u.setValue(floatsToWords(v.X, v.Y, v.Z, v.W), 1)
	}
}

func (u *Uniform) SetVec4Array(values []math.Vec4) {
	if !u.checkType(metadata.UniformTypeVec4Array) {
		return
	}
	values = values[:min(len(values), int(u.components))]
	words := make([]uint32, 0, 4*len(values))
	for _, v := range values {
		words = append(words, floatsToWords(v.X, v.Y, v.Z, v.W)...)
	}
	u.setValue(words, len(values))
}

func (u *Uniform) SetMat4(m math.Mat4) {
	if u.checkType(metadata.UniformTypeMat4) {
		u.setValue(floatsToWords(m.Data[:]...), 1)
	}
}

func (u *Uniform) SetMat4Array(values []math.Mat4) {
	if !u.checkType(metadata.UniformTypeMat4Array) {
		return
	}
	values = values[:min(len(values), int(u.components))]
	words := make([]uint32, 0, 16*len(values))
	for _, m := range values {
		words = append(words, floatsToWords(m.Data[:]...)...)
	}
	u.setValue(words, len(values))
}

/** @brief Sets a 2d affine texture matrix, three columns of two floats. */
func (u *Uniform) SetMat3x2(m [6]float32) {
	if u.checkType(metadata.UniformTypeMat3x2) {
		u.setValue(floatsToWords(m[:]...), 1)
	}
}

/** @brief Sets bone transforms, 12 floats per element. */
func (u *Uniform) SetMat3x4Array(values [][12]float32) {
	if !u.checkType(metadata.UniformTypeMat3x4Array) {
		return
	}
	values = values[:min(len(values), int(u.components))]
	words := make([]uint32, 0, 12*len(values))
	for _, m := range values {
		words = append(words, floatsToWords(m[:]...)...)
	}
	u.setValue(words, len(values))
}

/**
 * @brief Sets a texture handle. Bindless handles are 64-bit and uploaded,
 * otherwise the sampler keeps its texture unit and only the shadow changes.
 */
func (u *Uniform) SetTexture(handle uint64) {
	if !u.IsTexture() {
		core.LogWarn("uniform %s of shader %s is %s, cannot be set as a texture", u.name, u.shader.name, u.uniformType)
		return
	}
	if !u.shader.system.caps.BindlessTextures {
		u.value[0] = uint32(handle)
		return
	}
	u.setValue([]uint32{uint32(handle), uint32(handle >> 32)}, 1)
}

/**
 * @brief Serializes the shadow value into buf at word position pos and returns
 * the position of the next uniform. Arrays are written with a stride of Size
 * words per element.
 */
func (u *Uniform) WriteToBuffer(buf []uint32, pos uint32) uint32 {
	if u.components > 0 {
		words := u.shadowWords()
		for i := uint32(0); i < u.components; i++ {
			copy(buf[pos+i*u.size:], u.value[i*words:(i+1)*words])
		}
		return pos + u.size*u.components
	}

	if u.uniformType == metadata.UniformTypeMat3x2 {
		// each column is padded to a vec4
		v := u.value
		copy(buf[pos:], []uint32{v[0], v[1], 0, 0, v[2], v[3], 0, 0, v[4], v[5], 0, 0})
		return pos + u.size
	}
	copy(buf[pos:], u.value)
	return pos + u.size
}

func floatsToWords(values ...float32) []uint32 {
	words := make([]uint32, len(values))
	for i, v := range values {
		words[i] = stdmath.Float32bits(v)
	}
	return words
}

func wordsToBytes(words []uint32) []byte {
	raw := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(raw[4*i:], w)
	}
	return raw
}
