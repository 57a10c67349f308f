// Package software is an in-process stand-in for a GL driver. It accepts
// GLSL text, runs a minimal preprocessor over it, reports #error directives
// with vendor formatted info logs and serializes linked programs into
// binaries that can be loaded back.
package software

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

type shaderObject struct {
	stage    metadata.ShaderStage
	source   string
	compiled bool
	infoLog  string
	result   compileResult
}

type programObject struct {
	label     string
	attached  []uint32
	attribs   map[string]uint32
	linked    bool
	infoLog   string
	stages    []stageSource
	locations map[string]int32
	types     map[int32]string
	blocks    map[string]uint32
	bindings  map[uint32]uint32
	values    map[int32][]uint32
}

type stageSource struct {
	stage  metadata.ShaderStage
	source string
}

// Stats counts the driver work done so far.
type Stats struct {
	Compiles       int
	Links          int
	BinaryLoads    int
	BinarySaves    int
	UniformUploads int
}

// Backend implements renderer.Backend without a GPU.
type Backend struct {
	caps     metadata.Capabilities
	shaders  *core.HandlePool
	programs *core.HandlePool
	current  uint32
	stats    Stats
}

var _ renderer.Backend = (*Backend)(nil)

type Option func(*metadata.Capabilities)

// WithVendor selects the info log dialect.
func WithVendor(vendor metadata.DriverVendor) Option {
	return func(c *metadata.Capabilities) {
		c.Vendor = vendor
	}
}

// WithCapabilities lets the caller adjust any capability.
func WithCapabilities(fn func(*metadata.Capabilities)) Option {
	return func(c *metadata.Capabilities) {
		fn(c)
	}
}

func DefaultCapabilities() metadata.Capabilities {
	return metadata.Capabilities{
		Vendor:                 metadata.DriverVendorMesa,
		Renderer:               "shaderforge software",
		Version:                "4.6 (Core Profile) shaderforge",
		ShadingLanguageVersion: "4.60 shaderforge",
		GLSLVersion:            460,
		CoreProfile:            true,
		ProgramBinary:          true,
		UniformBufferObject:    true,
		ShaderStorageBuffer:    true,
		ComputeShader:          true,
		VertexSkinning:         true,
		MaxVertexSkinningBones: 256,
		MaxUniformBlockSize:    65536,
		Extensions: []metadata.Extension{
			{Name: "EXT_gpu_shader4", MinVersion: 130, Available: true},
			{Name: "EXT_texture_integer", MinVersion: 0, Available: true},
			{Name: "ARB_texture_rg", MinVersion: 0, Available: true},
			{Name: "ARB_texture_gather", MinVersion: 400, Available: true},
			{Name: "ARB_shader_draw_parameters", MinVersion: -1, Available: true},
			{Name: "ARB_compute_shader", MinVersion: 430, Available: true},
			{Name: "ARB_shading_language_420pack", MinVersion: 420, Available: true},
			{Name: "ARB_explicit_uniform_location", MinVersion: 430, Available: true},
			{Name: "ARB_shader_image_load_store", MinVersion: 420, Available: true},
			{Name: "ARB_shader_atomic_counters", MinVersion: 420, Available: true},
			{Name: "ARB_gpu_shader5", MinVersion: 400, Available: true},
			{Name: "ARB_uniform_buffer_object", MinVersion: 140, Available: true},
			{Name: "ARB_shader_storage_buffer_object", MinVersion: 430, Available: true},
			{Name: "ARB_bindless_texture", MinVersion: -1, Available: false},
		},
	}
}

func New(opts ...Option) *Backend {
	caps := DefaultCapabilities()
	for _, o := range opts {
		o(&caps)
	}
	return &Backend{
		caps:     caps,
		shaders:  core.NewHandlePool(64),
		programs: core.NewHandlePool(64),
	}
}

func (b *Backend) Capabilities() *metadata.Capabilities {
	return &b.caps
}

// Stats returns the counters accumulated since creation.
func (b *Backend) Stats() Stats {
	return b.stats
}

// LiveObjects returns how many shaders and programs are still allocated.
func (b *Backend) LiveObjects() (shaders, programs int) {
	return b.shaders.Live(), b.programs.Live()
}

func (b *Backend) shader(id uint32) *shaderObject {
	o, _ := b.shaders.Owner(id).(*shaderObject)
	return o
}

func (b *Backend) program(id uint32) *programObject {
	o, _ := b.programs.Owner(id).(*programObject)
	return o
}

func (b *Backend) CreateShader(stage metadata.ShaderStage) uint32 {
	return b.shaders.Acquire(&shaderObject{stage: stage})
}

func (b *Backend) ShaderSource(shader uint32, source string) {
	if s := b.shader(shader); s != nil {
		s.source = source
		s.compiled = false
	}
}

func (b *Backend) CompileShader(shader uint32) bool {
	s := b.shader(shader)
	if s == nil {
		return false
	}
	b.stats.Compiles++
	s.result = scan(s.source)
	s.compiled = len(s.result.errors) == 0
	s.infoLog = formatInfoLog(b.caps.Vendor, s.result.errors)
	return s.compiled
}

func (b *Backend) ShaderInfoLog(shader uint32) string {
	if s := b.shader(shader); s != nil {
		return s.infoLog
	}
	return ""
}

// ShaderSourceText returns the text last handed to ShaderSource.
func (b *Backend) ShaderSourceText(shader uint32) string {
	if s := b.shader(shader); s != nil {
		return s.source
	}
	return ""
}

func (b *Backend) DeleteShader(shader uint32) {
	_ = b.shaders.Release(shader)
}

func (b *Backend) CreateProgram() uint32 {
	return b.programs.Acquire(&programObject{
		attribs: make(map[string]uint32),
	})
}

func (b *Backend) ObjectLabel(program uint32, label string) {
	if p := b.program(program); p != nil {
		p.label = label
	}
}

// Label returns the debug label of a program.
func (b *Backend) Label(program uint32) string {
	if p := b.program(program); p != nil {
		return p.label
	}
	return ""
}

func (b *Backend) AttachShader(program, shader uint32) {
	if p := b.program(program); p != nil {
		p.attached = append(p.attached, shader)
	}
}

func (b *Backend) BindAttribLocation(program, index uint32, name string) {
	if p := b.program(program); p != nil {
		p.attribs[name] = index
	}
}

func (b *Backend) LinkProgram(program uint32) bool {
	p := b.program(program)
	if p == nil {
		return false
	}
	b.stats.Links++

	var stages []stageSource
	var results []compileResult
	for _, id := range p.attached {
		s := b.shader(id)
		if s == nil || !s.compiled {
			p.linked = false
			p.infoLog = fmt.Sprintf("error: shader %d is not compiled\n", id)
			return false
		}
		stages = append(stages, stageSource{stage: s.stage, source: s.source})
		results = append(results, s.result)
	}
	return b.link(p, stages, results)
}

func (b *Backend) link(p *programObject, stages []stageSource, results []compileResult) bool {
	var mask metadata.ShaderStage
	for _, s := range stages {
		mask |= s.stage
	}
	switch {
	case len(stages) == 0:
		p.infoLog = "error: no shaders attached\n"
	case mask&metadata.ShaderStageCompute != 0 && mask != metadata.ShaderStageCompute:
		p.infoLog = "error: compute shader linked with other stages\n"
	case mask&metadata.ShaderStageCompute == 0 && !mask.Has(metadata.ShaderStageVertexFragment):
		p.infoLog = "error: program lacks a vertex or a fragment shader\n"
	default:
		p.infoLog = ""
	}
	if p.infoLog != "" {
		p.linked = false
		return false
	}

	types := map[string]string{}
	blocks := map[string]struct{}{}
	for _, r := range results {
		for _, u := range r.uniforms {
			t := u.glslType
			if u.count > 0 {
				t = fmt.Sprintf("%s[%d]", u.glslType, u.count)
			}
			if prev, ok := types[u.name]; ok && prev != t {
				p.linked = false
				p.infoLog = fmt.Sprintf("error: uniform `%s' declared as type `%s' and type `%s'\n", u.name, prev, t)
				return false
			}
			types[u.name] = t
		}
		for _, name := range r.blocks {
			blocks[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	p.locations = make(map[string]int32, len(names))
	p.types = make(map[int32]string, len(names))
	for i, name := range names {
		p.locations[name] = int32(i)
		p.types[int32(i)] = types[name]
	}

	blockNames := make([]string, 0, len(blocks))
	for name := range blocks {
		blockNames = append(blockNames, name)
	}
	sort.Strings(blockNames)
	p.blocks = make(map[string]uint32, len(blockNames))
	for i, name := range blockNames {
		p.blocks[name] = uint32(i)
	}
	p.bindings = make(map[uint32]uint32)
	p.values = make(map[int32][]uint32)
	p.stages = stages
	p.linked = true
	return true
}

func (b *Backend) ProgramInfoLog(program uint32) string {
	if p := b.program(program); p != nil {
		return p.infoLog
	}
	return ""
}

func (b *Backend) DeleteProgram(program uint32) {
	if b.current == program {
		b.current = 0
	}
	_ = b.programs.Release(program)
}

func (b *Backend) GetProgramBinary(program uint32) (uint32, []byte, bool) {
	p := b.program(program)
	if p == nil || !p.linked || !b.caps.ProgramBinary {
		return 0, nil, false
	}
	b.stats.BinarySaves++
	return BinaryFormat, encodeProgram(p.stages), true
}

func (b *Backend) ProgramBinary(program, format uint32, binary []byte) bool {
	p := b.program(program)
	if p == nil || format != BinaryFormat {
		return false
	}
	stages, err := decodeProgram(binary)
	if err != nil {
		core.LogDebug("rejecting program binary: %s", err.Error())
		return false
	}
	results := make([]compileResult, len(stages))
	for i, s := range stages {
		results[i] = scan(s.source)
		if len(results[i].errors) != 0 {
			return false
		}
	}
	b.stats.BinaryLoads++
	return b.link(p, stages, results)
}

func (b *Backend) UseProgram(program uint32) {
	b.current = program
}

// CurrentProgram returns the program last passed to UseProgram.
func (b *Backend) CurrentProgram() uint32 {
	return b.current
}

func (b *Backend) GetUniformLocation(program uint32, name string) int32 {
	p := b.program(program)
	if p == nil || !p.linked {
		return -1
	}
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

func (b *Backend) GetUniformBlockIndex(program uint32, name string) uint32 {
	p := b.program(program)
	if p == nil || !p.linked {
		return renderer.InvalidIndex
	}
	if idx, ok := p.blocks[name]; ok {
		return idx
	}
	return renderer.InvalidIndex
}

func (b *Backend) UniformBlockBinding(program, blockIndex, binding uint32) {
	if p := b.program(program); p != nil && p.linked {
		p.bindings[blockIndex] = binding
	}
}

// BlockBinding returns the binding point assigned to a block of program.
func (b *Backend) BlockBinding(program uint32, name string) (uint32, bool) {
	p := b.program(program)
	if p == nil || !p.linked {
		return 0, false
	}
	idx, ok := p.blocks[name]
	if !ok {
		return 0, false
	}
	binding, ok := p.bindings[idx]
	return binding, ok
}

func (b *Backend) SetUniform(location int32, t metadata.UniformType, count int, data []uint32) {
	p := b.program(b.current)
	if p == nil || !p.linked || location < 0 {
		return
	}
	declared, ok := p.types[location]
	if !ok {
		core.LogWarn("SetUniform: no uniform at location %d", location)
		return
	}
	if !strings.HasPrefix(declared, t.GLSLType()) && !(t.IsSampler() && !strings.Contains(declared, "[")) {
		core.LogWarn("SetUniform: type %s does not match %s at location %d", t.String(), declared, location)
	}
	b.stats.UniformUploads++
	p.values[location] = append([]uint32(nil), data...)
}

// UniformValue returns the words last uploaded for name in program.
func (b *Backend) UniformValue(program uint32, name string) ([]uint32, bool) {
	p := b.program(program)
	if p == nil || !p.linked {
		return nil, false
	}
	loc, ok := p.locations[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

// Uniforms lists the active uniform names of a program, sorted.
func (b *Backend) Uniforms(program uint32) []string {
	p := b.program(program)
	if p == nil || !p.linked {
		return nil
	}
	names := make([]string, 0, len(p.locations))
	for name := range p.locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
