package assets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/shaderforge/engine/assets/loaders"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

//go:embed glsl/*.glsl
var builtinShaders embed.FS

const builtinRoot = "glsl"

// BuiltinText returns the embedded copy of a shader source file.
func BuiltinText(filename string) (string, bool) {
	data, err := fs.ReadFile(builtinShaders, path.Join(builtinRoot, filename))
	if err != nil {
		return "", false
	}
	return loaders.NormalizeLineEndings(string(data)), true
}

// BuiltinNames lists the embedded shader source files, sorted.
func BuiltinNames() []string {
	entries, err := fs.ReadDir(builtinShaders, builtinRoot)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ShaderSource resolves shader file names to text. The built-in table is used
// unless an external directory was configured, in which case files are read
// from disk and compared with their built-in copy.
type ShaderSource struct {
	path   string
	loader loaders.ShaderLoader

	mutex sync.RWMutex
	texts map[string]string

	watcher *AssetManager
}

// NewShaderSource selects the external directory dir, or the built-in table
// when dir is empty.
func NewShaderSource(dir string) *ShaderSource {
	return &ShaderSource{
		path:  dir,
		texts: make(map[string]string),
	}
}

// External reports whether sources come from a directory on disk.
func (s *ShaderSource) External() bool {
	return s.path != ""
}

func (s *ShaderSource) Path() string {
	return s.path
}

// Text returns the source of filename, e.g. "generic_vp.glsl".
func (s *ShaderSource) Text(filename string) (string, error) {
	if !s.External() {
		text, ok := BuiltinText(filename)
		if !ok {
			core.LogError("No shader found for shader: %s", filename)
			return "", fmt.Errorf("%w: %s", core.ErrShaderSourceNotFound, filename)
		}
		return text, nil
	}

	s.mutex.RLock()
	text, ok := s.texts[filename]
	s.mutex.RUnlock()
	if ok {
		return text, nil
	}

	text, err := s.load(filename)
	if err != nil {
		return "", err
	}
	s.mutex.Lock()
	s.texts[filename] = text
	s.mutex.Unlock()
	return text, nil
}

func (s *ShaderSource) load(filename string) (string, error) {
	shaderFilename := filepath.Join(s.path, filepath.FromSlash(filename))
	core.LogInfo("Loading shader '%s'", shaderFilename)

	res, err := s.loader.Load(shaderFilename, metadata.ResourceTypeShader, nil)
	if err != nil {
		if errors.Is(err, core.ErrShaderSourceEmpty) {
			core.LogError("%s", err.Error())
			return "", err
		}
		core.LogError("Cannot load shader from file %s: %s", shaderFilename, err.Error())
		return "", fmt.Errorf("%w: %s: %s", core.ErrShaderSourceNotFound, shaderFilename, err.Error())
	}
	text := res.Data.(string)

	if builtin, _ := BuiltinText(filename); builtin != text {
		core.LogWarn("Note shader file differs from built-in shader: %s", shaderFilename)
	}
	return text, nil
}

// Preload reads the named files concurrently so the build phase does not
// wait on the disk. It is a no-op for the built-in table.
func (s *ShaderSource) Preload(ctx context.Context, filenames []string) error {
	if !s.External() {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, name := range filenames {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.Text(name)
			return err
		})
	}
	return g.Wait()
}

// Invalidate drops the loaded copy of filename so the next Text call reads
// it again.
func (s *ShaderSource) Invalidate(filename string) {
	s.mutex.Lock()
	delete(s.texts, filename)
	s.mutex.Unlock()
}

// Watch starts reporting changes to .glsl files of the external directory.
func (s *ShaderSource) Watch() (<-chan ChangeEvent, error) {
	if !s.External() {
		return nil, fmt.Errorf("cannot watch built-in shaders")
	}
	if s.watcher != nil {
		return s.watcher.Changes(), nil
	}
	am, err := NewAssetManager()
	if err != nil {
		return nil, err
	}
	if err := am.Initialize(s.path); err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	s.watcher = am
	return am.Changes(), nil
}

// Close stops the watcher, if any.
func (s *ShaderSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Shutdown()
	s.watcher = nil
	return err
}

// ExportBuiltins writes the built-in table to dir, creating the directory
// layout expected by an external source path.
func ExportBuiltins(dir string, write func(path string, data []byte) error) error {
	for _, name := range BuiltinNames() {
		text, _ := BuiltinText(name)
		if err := write(filepath.Join(dir, name), []byte(text)); err != nil {
			return err
		}
	}
	return nil
}

// StageFilename returns the file name of a stage source, e.g. "generic" and
// a vertex stage give "generic_vp.glsl".
func StageFilename(name string, stage metadata.ShaderStage) string {
	if strings.HasSuffix(name, ".glsl") {
		return name
	}
	return name + stage.Postfix() + ".glsl"
}
