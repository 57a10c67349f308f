package metadata

import (
	"fmt"

	"github.com/google/uuid"
)

/** @brief Identifies one compiled stage requested by a program. */
type ShaderEntry struct {
	/** @brief The source name, e.g. "lightMapping" or "deformVertexes_2". */
	Name string
	/** @brief The effective macro mask of this stage. */
	Macro uint32
	Stage ShaderStage
}

func (e ShaderEntry) String() string {
	return fmt.Sprintf("%s(%s, 0x%x)", e.Name, e.Stage, e.Macro)
}

/** @brief Orders entries by name, then stage, then macro. */
func (e ShaderEntry) Less(o ShaderEntry) bool {
	if e.Name != o.Name {
		return e.Name < o.Name
	}
	if e.Stage != o.Stage {
		return e.Stage < o.Stage
	}
	return e.Macro < o.Macro
}

/**
 * @brief A compiled (or not yet compiled) stage. Deduplicated on
 * (Name, Macro, Stage): permutations whose effective mask for a stage is the
 * same share the descriptor.
 */
type ShaderDescriptor struct {
	Name  string
	Macro uint32
	Stage ShaderStage
	/** @brief Native shader handle, 0 until compiled. */
	ID uint32
	/** @brief The fully assembled source handed to the compiler. */
	Text string
	/** @brief Byte offset right after the version declaration, where injected blocks go. */
	Offset int
	/** @brief True for the stage of the logical shader itself, false for shared stages such as deforms. */
	Main bool
}

func (sd *ShaderDescriptor) Entry() ShaderEntry {
	return ShaderEntry{Name: sd.Name, Macro: sd.Macro, Stage: sd.Stage}
}

/** @brief Reports whether the descriptor was created for entry. */
func (sd *ShaderDescriptor) Matches(entry ShaderEntry) bool {
	return sd.Name == entry.Name && sd.Macro == entry.Macro && sd.Stage == entry.Stage
}

/** @brief A linked program made of a sorted set of stages. */
type ShaderProgramDescriptor struct {
	/** @brief Native program handle. */
	ID uint32
	/** @brief Debug label handed to the backend. */
	Label uuid.UUID
	/** @brief The attached stages, sorted by name. */
	Shaders []ShaderEntry
	/** @brief Checksum of the concatenated stage sources, in Shaders order. */
	Checksum uint32
	/** @brief Set when the program came from the binary cache. */
	FromCache bool

	/** @brief One location per uniform of the owning shader, -1 when inactive. */
	UniformLocations []int32
	/** @brief One index per uniform block of the owning shader. */
	UniformBlockIndexes []uint32
	/** @brief Last value handed to the driver, per uniform, at its firewall offset. */
	UniformFirewall []byte
}

/** @brief Reports whether entry is attached to the program. */
func (p *ShaderProgramDescriptor) HasShader(entry ShaderEntry) bool {
	for _, e := range p.Shaders {
		if e == entry {
			return true
		}
	}
	return false
}

/** @brief Reports whether the program is made of exactly the given entries. */
func (p *ShaderProgramDescriptor) Matches(entries []ShaderEntry) bool {
	if len(entries) != len(p.Shaders) {
		return false
	}
	for _, e := range entries {
		if !p.HasShader(e) {
			return false
		}
	}
	return true
}

/** @brief One diagnostic parsed out of a driver info log. */
type InfoLogEntry struct {
	/** @brief Source line, as numbered by #line directives. */
	Line int
	/** @brief Column, or -1 if the driver does not report it. */
	Character int
	Token     string
	Error     string
}

/** @brief The build state of one permutation of a logical shader. */
type PermutationState int

const (
	PermutationUnbuilt PermutationState = iota
	PermutationCacheLookupPending
	PermutationStagesCompiling
	PermutationLinking
	PermutationLinked
	PermutationBuildFailed
)

func (s PermutationState) String() string {
	switch s {
	case PermutationUnbuilt:
		return "Unbuilt"
	case PermutationCacheLookupPending:
		return "CacheLookupPending"
	case PermutationStagesCompiling:
		return "StagesCompiling"
	case PermutationLinking:
		return "Linking"
	case PermutationLinked:
		return "Linked"
	case PermutationBuildFailed:
		return "BuildFailed"
	}
	return "Unknown"
}

/** @brief Linked and BuildFailed never change again. */
func (s PermutationState) IsTerminal() bool {
	return s == PermutationLinked || s == PermutationBuildFailed
}
