package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockChecksum(t *testing.T) {
	// MD4 reference digests from RFC 1320, folded into 32 bits.
	assert.Equal(t, uint32(0xc6f640b7), BlockChecksum(nil))
	assert.Equal(t, uint32(0x5da10e2e), BlockChecksum([]byte("abc")))
	assert.Equal(t, BlockChecksum([]byte("abc")), StringChecksum("abc"))
}

func TestBlockChecksumSingleCharacter(t *testing.T) {
	a := StringChecksum("#version 460 core\nvoid main() {}\n")
	b := StringChecksum("#version 460 core\nvoid main() {]\n")
	assert.NotEqual(t, a, b)
}
