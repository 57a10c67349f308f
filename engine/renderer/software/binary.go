package software

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

// BinaryFormat is the native format tag of software program binaries.
const BinaryFormat uint32 = 0x53464231

var binaryMagic = [4]byte{'S', 'F', 'P', 'B'}

var errBinaryTruncated = errors.New("program binary truncated")

func encodeProgram(stages []stageSource) []byte {
	var buf bytes.Buffer
	buf.Write(binaryMagic[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(stages)))
	for _, s := range stages {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(s.stage))
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(s.source)))
		buf.WriteString(s.source)
	}
	return buf.Bytes()
}

func decodeProgram(data []byte) ([]stageSource, error) {
	r := bytes.NewReader(data)

	var magic [4]byte
	if _, err := r.Read(magic[:]); err != nil || magic != binaryMagic {
		return nil, fmt.Errorf("bad program binary magic")
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, errBinaryTruncated
	}
	if int(count) > r.Len() {
		return nil, errBinaryTruncated
	}

	stages := make([]stageSource, 0, count)
	for i := uint32(0); i < count; i++ {
		var stage, length uint32
		if err := binary.Read(r, binary.LittleEndian, &stage); err != nil {
			return nil, errBinaryTruncated
		}
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, errBinaryTruncated
		}
		if int(length) > r.Len() {
			return nil, errBinaryTruncated
		}
		source := make([]byte, length)
		if _, err := r.Read(source); err != nil && length > 0 {
			return nil, errBinaryTruncated
		}
		stages = append(stages, stageSource{stage: metadata.ShaderStage(stage), source: string(source)})
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes in program binary", r.Len())
	}
	return stages, nil
}
