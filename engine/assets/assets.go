package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/shaderforge/engine/assets/loaders"
	"github.com/spaghettifunk/shaderforge/engine/core"
	"github.com/spaghettifunk/shaderforge/engine/renderer/metadata"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// ChangeEvent reports a shader source that was written, created or removed
// below the watched directory.
type ChangeEvent struct {
	// Name is the path relative to the watched root, with forward slashes.
	Name    string
	Path    string
	Type    metadata.ResourceType
	Removed bool
}

// AssetManager indexes the files of a shader directory and reports changes
// to them.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	running  bool
	changes  chan ChangeEvent
	errors   chan error
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		changes:  make(chan ChangeEvent, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes and watches assetsDir and everything below it.
func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeShaderBinary, &loaders.ShaderBinaryLoader{})

	if err := am.addRecursive(root); err != nil {
		return err
	}

	am.running = true
	go am.start()
	return nil
}

// Changes delivers one event per changed shader file. It is closed by Shutdown.
func (am *AssetManager) Changes() <-chan ChangeEvent {
	return am.changes
}

// Errors delivers the watcher errors. It is closed by Shutdown.
func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads a file of the index with the loader of its type. name is
// relative to the watched root.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*metadata.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[name]
	if exists {
		// Load or reload asset from disk if necessary
		asset.LastLoaded = time.Now()
		am.assets[name] = asset // Update the loaded time
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", name)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(asset.Path, asset.Type, params)
}

// Assets returns the indexed file names.
func (am *AssetManager) Assets() []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	names := make([]string, 0, len(am.assets))
	for name := range am.assets {
		names = append(names, name)
	}
	return names
}

// Shutdown stops the watcher and closes the event channels.
func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if !am.running {
		am.stop()
		return nil
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				am.stop()
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}

			var ev ChangeEvent
			var changed bool
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				ev, changed = am.handleFileEvent(e.Name)
			}
			// Can't stat a deleted file, so drop it from the index and the watch list either way.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				ev, changed = am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}
			if !changed {
				continue
			}
			select {
			case am.changes <- ev:
			case <-am.done:
				am.stop()
				return
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				am.stop()
				return
			}
			core.LogError("%s", e.Error())
			select {
			case am.errors <- e:
			default:
			}

		case <-am.done:
			am.stop()
			return
		}
	}
}

func (am *AssetManager) stop() {
	am.fsnotify.Close()
	close(am.changes)
	close(am.errors)
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found on the way.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) relative(path string) string {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (ChangeEvent, bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return ChangeEvent{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()

	name := am.relative(path)
	am.assets[name] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	return ChangeEvent{Name: name, Path: path, Type: assetType}, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (ChangeEvent, bool) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	name := am.relative(path)
	info, ok := am.assets[name]
	if !ok {
		return ChangeEvent{}, false
	}
	delete(am.assets, name)
	return ChangeEvent{Name: name, Path: path, Type: info.Type, Removed: true}, true
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".glsl":
		return metadata.ResourceTypeShader
	case ".bin":
		return metadata.ResourceTypeShaderBinary
	default:
		return metadata.ResourceTypeNone
	}
}
