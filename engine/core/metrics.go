package core

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Counter accumulates the number of events of one kind and the time spent.
type Counter struct {
	Count    uint32        `yaml:"count"`
	Duration time.Duration `yaml:"-"`
	// Millis mirrors Duration for the exported report.
	Millis int64 `yaml:"ms"`
}

func (c *Counter) Add(d time.Duration) {
	c.Count++
	c.Duration += d
	c.Millis = c.Duration.Milliseconds()
}

// ShaderMetrics is the per logical shader part of the build report.
type ShaderMetrics struct {
	Permutations uint32 `yaml:"permutations"`
	Failed       uint32 `yaml:"failed"`
	Unused       uint32 `yaml:"unused"`
}

// BuildMetrics collects the statistics of one shader build session.
type BuildMetrics struct {
	Session  string                    `yaml:"session"`
	Renderer string                    `yaml:"renderer,omitempty"`
	Programs uint32                    `yaml:"programs"`
	Total    Counter                   `yaml:"total"`
	Compile  Counter                   `yaml:"compile"`
	Link     Counter                   `yaml:"link"`
	Init     Counter                   `yaml:"init"`
	Load     Counter                   `yaml:"cache_load"`
	Save     Counter                   `yaml:"cache_save"`
	Shaders  map[string]*ShaderMetrics `yaml:"shaders"`
}

func NewBuildMetrics(session string) *BuildMetrics {
	return &BuildMetrics{
		Session: session,
		Shaders: make(map[string]*ShaderMetrics),
	}
}

// Shader returns the entry of name, creating it on first use.
func (bm *BuildMetrics) Shader(name string) *ShaderMetrics {
	sm, ok := bm.Shaders[name]
	if !ok {
		sm = &ShaderMetrics{}
		bm.Shaders[name] = sm
	}
	return sm
}

// Reset clears every counter but keeps the session.
func (bm *BuildMetrics) Reset() {
	session, renderer := bm.Session, bm.Renderer
	*bm = BuildMetrics{
		Session:  session,
		Renderer: renderer,
		Shaders:  make(map[string]*ShaderMetrics),
	}
}

// Summary renders the one-line log message printed after a build.
func (bm *BuildMetrics) Summary() string {
	return fmt.Sprintf("Built %d glsl shader programs in %d ms (compile: %d in %d ms, link: %d in %d ms, init: %d in %d ms; cache: loaded %d in %d ms, saved %d in %d ms)",
		bm.Programs, bm.Total.Duration.Milliseconds(),
		bm.Compile.Count, bm.Compile.Duration.Milliseconds(),
		bm.Link.Count, bm.Link.Duration.Milliseconds(),
		bm.Init.Count, bm.Init.Duration.Milliseconds(),
		bm.Load.Count, bm.Load.Duration.Milliseconds(),
		bm.Save.Count, bm.Save.Duration.Milliseconds())
}

// ShaderNames returns the names present in the report, sorted.
func (bm *BuildMetrics) ShaderNames() []string {
	names := make([]string, 0, len(bm.Shaders))
	for name := range bm.Shaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteReport encodes the metrics as YAML.
func (bm *BuildMetrics) WriteReport(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(bm); err != nil {
		return err
	}
	return enc.Close()
}

// SaveReport writes the YAML report to path.
func (bm *BuildMetrics) SaveReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bm.WriteReport(f)
}
