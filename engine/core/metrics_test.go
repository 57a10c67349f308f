package core

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBuildMetricsSummary(t *testing.T) {
	bm := NewBuildMetrics("session")
	bm.Programs = 3
	bm.Compile.Add(2 * time.Millisecond)
	bm.Compile.Add(3 * time.Millisecond)
	bm.Link.Add(time.Millisecond)
	bm.Save.Add(0)

	assert.Equal(t,
		"Built 3 glsl shader programs in 0 ms (compile: 2 in 5 ms, link: 1 in 1 ms, init: 0 in 0 ms; cache: loaded 0 in 0 ms, saved 1 in 0 ms)",
		bm.Summary())
}

func TestBuildMetricsReport(t *testing.T) {
	bm := NewBuildMetrics("abc")
	bm.Shader("generic").Permutations = 4
	bm.Shader("lightMapping").Failed = 1
	bm.Load.Add(4 * time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, bm.WriteReport(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "session: abc\n"))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	shaders := decoded["shaders"].(map[string]interface{})
	assert.Len(t, shaders, 2)
	load := decoded["cache_load"].(map[string]interface{})
	assert.Equal(t, 1, load["count"])
	assert.Equal(t, 4, load["ms"])

	assert.Equal(t, []string{"generic", "lightMapping"}, bm.ShaderNames())

	bm.Reset()
	assert.Equal(t, "abc", bm.Session)
	assert.Empty(t, bm.Shaders)
}
