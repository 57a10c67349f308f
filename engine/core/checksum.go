package core

import (
	"encoding/binary"

	"golang.org/x/crypto/md4"
)

// BlockChecksum folds the MD4 digest of buffer into 32 bits by xoring its
// four little-endian words.
func BlockChecksum(buffer []byte) uint32 {
	h := md4.New()
	h.Write(buffer)
	digest := h.Sum(nil)

	var out uint32
	for i := 0; i < len(digest); i += 4 {
		out ^= binary.LittleEndian.Uint32(digest[i : i+4])
	}
	return out
}

// StringChecksum is BlockChecksum over the bytes of s.
func StringChecksum(s string) uint32 {
	return BlockChecksum([]byte(s))
}
