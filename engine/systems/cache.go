package systems

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spaghettifunk/shaderforge/engine/assets/loaders"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

/**
 * @brief The cache file of a program: glsl/<main>/<entries>.bin under the
 * cache home. The main shader's entries only contribute their macro and stage.
 */
func cacheFilename(entries []metadata.ShaderEntry, mainShader string) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Name != mainShader {
			fmt.Fprintf(&sb, "%s_%d_%d", e.Name, e.Macro, uint32(e.Stage))
		} else {
			fmt.Fprintf(&sb, "%d_%d_", e.Macro, uint32(e.Stage))
		}
	}
	return filepath.Join("glsl", mainShader, sb.String()+".bin")
}

/** @brief Reports whether binaries may be read from or written to the cache. */
func (ss *ShaderSystem) cacheUsable() bool {
	return ss.config.Cache && ss.cacheHome != "" && !ss.source.External() && ss.caps.ProgramBinary
}

func mainEntry(entries []metadata.ShaderEntry, mainShader string) (metadata.ShaderEntry, bool) {
	for _, e := range entries {
		if e.Name == mainShader {
			return e, true
		}
	}
	return metadata.ShaderEntry{}, false
}

/**
 * @brief Tries to create the program of desc from the cache. Any mismatch is a
 * miss; a header of another cache version invalidates the cache for the rest
 * of the session.
 */
func (ss *ShaderSystem) LoadShaderBinary(entries []metadata.ShaderEntry, mainShader string, desc *metadata.ShaderProgramDescriptor) bool {
	if !ss.cacheUsable() || ss.cacheInvalidated {
		return false
	}
	start := time.Now()

	filename := cacheFilename(entries, mainShader)
	var loader loaders.ShaderBinaryLoader
	res, err := loader.Load(filepath.Join(ss.cacheHome, filename), metadata.ResourceTypeShaderBinary, nil)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			core.LogDebug("failed to read shader cache %s: %s", filename, err.Error())
		}
		return false
	}
	sb := res.Data.(*metadata.ShaderBinary)
	header := sb.Header

	if header.Version != metadata.ShaderCacheVersion {
		core.LogInfo("Invalidating shader binary cache")
		ss.cacheInvalidated = true
		return false
	}
	if header.DriverVersionHash != ss.driverHash {
		return false
	}
	if header.Checksum != desc.Checksum {
		return false
	}
	if uint64(header.BinaryLength) != res.DataSize-metadata.ShaderCacheHeaderSize {
		core.LogWarn("Shader cache %s has wrong size", filename)
		return false
	}

	program := ss.backend.CreateProgram()
	if !ss.backend.ProgramBinary(program, header.BinaryFormat, sb.Binary) {
		ss.backend.DeleteProgram(program)
		return false
	}

	desc.ID = program
	desc.Shaders = append([]metadata.ShaderEntry(nil), entries...)
	desc.FromCache = true
	ss.metrics.Load.Add(time.Since(start))
	return true
}

/** @brief Stores the binary of a freshly linked program. Failures are logged and otherwise ignored. */
func (ss *ShaderSystem) SaveShaderBinary(desc *metadata.ShaderProgramDescriptor, mainShader string) {
	if !ss.cacheUsable() {
		return
	}
	start := time.Now()

	format, bin, ok := ss.backend.GetProgramBinary(desc.ID)
	if !ok || len(bin) == 0 {
		return
	}

	header := metadata.ShaderCacheHeader{
		Version:           metadata.ShaderCacheVersion,
		Checksum:          desc.Checksum,
		DriverVersionHash: ss.driverHash,
		BinaryFormat:      format,
		BinaryLength:      uint32(len(bin)),
	}
	if e, ok := mainEntry(desc.Shaders, mainShader); ok {
		header.Type = uint32(e.Stage)
		header.Macro = e.Macro
	}

	path := filepath.Join(ss.cacheHome, cacheFilename(desc.Shaders, mainShader))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		core.LogWarn("failed to create shader cache directory: %s", err.Error())
		return
	}
	if err := os.WriteFile(path, loaders.EncodeShaderBinary(&metadata.ShaderBinary{Header: header, Binary: bin}), 0o644); err != nil {
		core.LogWarn("failed to write shader cache %s: %s", path, err.Error())
		return
	}
	ss.metrics.Save.Add(time.Since(start))
}
