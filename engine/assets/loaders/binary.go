package loaders

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

// ShaderBinaryLoader reads program binary cache files. The resource data is
// a *metadata.ShaderBinary and DataSize is the size of the whole file, so
// callers can check the stored binary length against it.
type ShaderBinaryLoader struct{}

func (bl *ShaderBinaryLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeShaderBinary && assetType != metadata.ResourceTypeBinary {
		return nil, fmt.Errorf("shader binary loader cannot load resource type %d", assetType)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	sb, err := DecodeShaderBinary(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := ""
	if p, ok := params.(map[string]string); ok {
		name = p["name"]
	}

	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     sb,
	}, nil
}

func (bl *ShaderBinaryLoader) Unload(*metadata.Resource) error {
	return nil
}

// DecodeShaderBinary splits a cache file into its header and binary. The
// binary is whatever follows the header; the stored length is not checked.
func DecodeShaderBinary(b []byte) (*metadata.ShaderBinary, error) {
	if len(b) < metadata.ShaderCacheHeaderSize {
		return nil, fmt.Errorf("file is %d bytes: %w", len(b), core.ErrCacheHeader)
	}
	words := bytesToWords(b[:metadata.ShaderCacheHeaderSize])
	return &metadata.ShaderBinary{
		Header: metadata.ShaderCacheHeader{
			Version:           words[0],
			Checksum:          words[1],
			DriverVersionHash: words[2],
			Type:              words[3],
			Macro:             words[4],
			BinaryFormat:      words[5],
			BinaryLength:      words[6],
		},
		Binary: b[metadata.ShaderCacheHeaderSize:],
	}, nil
}

// EncodeShaderBinary is the inverse of DecodeShaderBinary.
func EncodeShaderBinary(sb *metadata.ShaderBinary) []byte {
	h := sb.Header
	out := make([]byte, metadata.ShaderCacheHeaderSize, metadata.ShaderCacheHeaderSize+len(sb.Binary))
	for i, w := range []uint32{h.Version, h.Checksum, h.DriverVersionHash, h.Type, h.Macro, h.BinaryFormat, h.BinaryLength} {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return append(out, sb.Binary...)
}

func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
