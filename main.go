/*
shaderforge builds every permutation of the engine shaders against the
software backend and reports what it did. With -watch it keeps rebuilding
the shaders whose sources change.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spaghettifunk/shaderforge/engine/assets"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/software"
	"github.com/spaghettifunk/shaderforge/engine/systems"
)

func main() {
	if err := run(); err != nil {
		core.LogError("%s", err.Error())
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "shaderforge.toml", "path of the configuration file")
	dumpDir := flag.String("dump", "", "write the assembled stage sources to this directory")
	exportDir := flag.String("export", "", "write the built-in shader sources to this directory and exit")
	reportPath := flag.String("report", "", "write the YAML build report to this file")
	shaderPath := flag.String("shaders", "", "read shader sources from this directory instead of the built-in ones")
	watch := flag.Bool("watch", false, "rebuild shaders when their sources change")
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *shaderPath != "" {
		cfg.Shaders.Path = *shaderPath
	}
	if *watch {
		cfg.Shaders.Watch = true
	}
	if err := cfg.Apply(); err != nil {
		return err
	}

	if *exportDir != "" {
		return assets.ExportBuiltins(*exportDir, writeFile)
	}

	core.EventInitialize()
	defer core.EventShutdown()

	// signal context to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	core.EventRegister(core.EVENT_CODE_SHADER_BROKEN, nil, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		core.LogWarn("shader %s is broken (macros %d)", data.Data.C[0], data.Data.U32[0])
		return false
	})

	sm, err := systems.NewSystemManager(cfg, software.New())
	if err != nil {
		return err
	}
	defer func() {
		if err := sm.Shutdown(); err != nil {
			core.LogError("%s", err.Error())
		}
	}()

	if err := sm.Build(ctx); err != nil {
		return err
	}

	if *dumpDir != "" {
		if err := dump(sm.ShaderSystem(), *dumpDir); err != nil {
			return err
		}
	}
	if *reportPath != "" {
		if err := sm.ShaderSystem().Metrics().SaveReport(*reportPath); err != nil {
			return err
		}
	}

	return sm.Watch(ctx)
}

func dump(ss *systems.ShaderSystem, dir string) error {
	for _, d := range ss.Descriptors() {
		name := fmt.Sprintf("%s_%d%s.glsl", d.Name, d.Macro, d.Stage.Postfix())
		if err := writeFile(filepath.Join(dir, name), []byte(d.Text)); err != nil {
			return err
		}
	}
	core.LogInfo("Wrote %d shader sources to %s", len(ss.Descriptors()), dir)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
