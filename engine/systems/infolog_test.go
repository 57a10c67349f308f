package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

func TestParseInfoLog(t *testing.T) {
	tests := []struct {
		name    string
		vendor  metadata.DriverVendor
		log     string
		entries []metadata.InfoLogEntry
	}{
		{
			name:   "mesa",
			vendor: metadata.DriverVendorMesa,
			log:    "0:12(5): error: syntax error\nno location here\n0:3(1): error: undeclared\n",
			entries: []metadata.InfoLogEntry{
				{Line: 3, Character: 1, Error: "0:3(1): error: undeclared"},
				{Line: 12, Character: 5, Error: "0:12(5): error: syntax error"},
			},
		},
		{
			name:   "nvidia",
			vendor: metadata.DriverVendorNvidia,
			log:    "0(42) : error C1008: undefined variable \"foo\"\n",
			entries: []metadata.InfoLogEntry{
				{Line: 42, Character: -1, Token: "foo", Error: "0(42) : error C1008: undefined variable \"foo\""},
			},
		},
		{
			name:   "intel",
			vendor: metadata.DriverVendorIntel,
			log:    "ERROR: 0:7: 'x' : undeclared identifier\nERROR: 1 compilation errors.",
			entries: []metadata.InfoLogEntry{
				{Line: 7, Character: -1, Error: "ERROR: 0:7: 'x' : undeclared identifier"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.entries, ParseInfoLog(tt.vendor, tt.log))
		})
	}

	assert.Empty(t, ParseInfoLog(metadata.DriverVendorUnknown, "0:12(5): error"))
}

func TestPrintShaderSource(t *testing.T) {
	out := PrintShaderSource("a\n\tb x\nc\n", []metadata.InfoLogEntry{{Line: 2, Character: 2, Error: "E"}})
	assert.Equal(t, "   1: a\n"+
		"   2: \tb x\n"+
		"------\t-^-\nE\n\n"+
		"   3: c\n", out)
}

func TestPrintShaderSourceFollowsLineDirectives(t *testing.T) {
	entries := ParseInfoLog(metadata.DriverVendorNvidia, "0(10) : error C1008: undefined variable \"x\"")
	require.Len(t, entries, 1)

	out := PrintShaderSource("#line 10\nx;\n", entries)
	assert.Equal(t, "   1: #line 10\n"+
		"  10: x;\n"+
		"------^-\n"+entries[0].Error+"\n\n", out)

	out = PrintShaderSource("ab\n", []metadata.InfoLogEntry{{Line: 1, Character: -1, Error: "E"}})
	assert.Equal(t, "   1: ab\n^^^^^^^^\nE\n\n", out)
}
