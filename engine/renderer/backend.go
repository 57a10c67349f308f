package renderer

import "github.com/spaghettifunk/shaderforge/engine/renderer/metadata"

// InvalidIndex is returned by GetUniformBlockIndex for unknown blocks.
const InvalidIndex uint32 = 0xFFFFFFFF

// Backend is the part of a graphics driver the shader system talks to. All
// calls happen on the goroutine owning the context.
type Backend interface {
	Capabilities() *metadata.Capabilities

	CreateShader(stage metadata.ShaderStage) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32) bool
	ShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	ObjectLabel(program uint32, label string)
	AttachShader(program, shader uint32)
	BindAttribLocation(program, index uint32, name string)
	LinkProgram(program uint32) bool
	ProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)

	// GetProgramBinary returns the native binary of a linked program.
	GetProgramBinary(program uint32) (format uint32, binary []byte, ok bool)
	// ProgramBinary loads a binary previously returned by GetProgramBinary.
	ProgramBinary(program, format uint32, binary []byte) bool

	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	GetUniformBlockIndex(program uint32, name string) uint32
	UniformBlockBinding(program, blockIndex, binding uint32)
	// SetUniform uploads count elements of type t for the bound program.
	// data holds the raw 32-bit words of the value.
	SetUniform(location int32, t metadata.UniformType, count int, data []uint32)
}
