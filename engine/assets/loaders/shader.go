package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

// ShaderLoader reads GLSL source files. The resource data is the text with
// CRLF line endings turned into LF.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeShader && assetType != metadata.ResourceTypeText {
		return nil, fmt.Errorf("shader loader cannot load resource type %d", assetType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := NormalizeLineEndings(string(data))
	if text == "" {
		return nil, fmt.Errorf("shader from file is empty: %s: %w", path, core.ErrShaderSourceEmpty)
	}
	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(text)),
		Data:     text,
	}, nil
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}

// NormalizeLineEndings turns CRLF pairs into LF.
func NormalizeLineEndings(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
