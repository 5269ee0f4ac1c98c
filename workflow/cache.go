package workflow

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"predictdemo/ml"
)

// loadModel is swapped in tests to count disk reads.
var loadModel = ml.LoadModel

const DefaultCacheSize = 16

// ModelCache keeps deserialized classifiers keyed by canonical artifact path.
// Cached classifiers are read-only, so a hit can be shared between requests.
type ModelCache struct {
	entries *lru.Cache[string, ml.Classifier]
	logger  *zap.Logger
	loads   atomic.Int64

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	dirs    map[string]bool
	done    chan struct{}
}

func NewModelCache(size int, logger *zap.Logger) (*ModelCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &ModelCache{
		logger: logger,
		dirs:   make(map[string]bool),
	}
	entries, err := lru.NewWithEvict[string, ml.Classifier](size, func(path string, _ ml.Classifier) {
		c.logger.Debug("model evicted from cache", zap.String("path", path))
	})
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// CanonicalPath is the cache key for path: absolute with symlinks resolved.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Get returns the classifier for path, loading it on the first request only.
func (c *ModelCache) Get(path string) (ml.Classifier, error) {
	key, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}
	if model, ok := c.entries.Get(key); ok {
		return model, nil
	}

	model, err := loadModel(key)
	if err != nil {
		return nil, err
	}
	c.loads.Add(1)
	c.entries.Add(key, model)
	c.watchDir(filepath.Dir(key))
	c.logger.Info("model loaded",
		zap.String("path", key),
		zap.String("algorithm", model.Algorithm()),
		zap.String("library_version", model.LibraryVersion()),
	)
	return model, nil
}

func (c *ModelCache) Invalidate(path string) bool {
	key, err := CanonicalPath(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	return c.entries.Remove(key)
}

func (c *ModelCache) Len() int { return c.entries.Len() }

// Loads reports how many artifacts were read from disk.
func (c *ModelCache) Loads() int64 { return c.loads.Load() }

// Watch evicts cached models whose artifact is rewritten, removed or renamed.
// Directories are watched rather than files so atomic replace-by-rename is seen.
func (c *ModelCache) Watch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create artifact watcher: %w", err)
	}
	c.watcher = watcher
	c.done = make(chan struct{})
	for _, key := range c.entries.Keys() {
		c.addDirLocked(filepath.Dir(key))
	}
	go c.watchLoop(watcher, c.done)
	return nil
}

func (c *ModelCache) watchDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return
	}
	c.addDirLocked(dir)
}

func (c *ModelCache) addDirLocked(dir string) {
	if c.dirs[dir] {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		c.logger.Warn("watch artifact directory failed", zap.String("dir", dir), zap.Error(err))
		return
	}
	c.dirs[dir] = true
}

func (c *ModelCache) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if c.entries.Remove(filepath.Clean(event.Name)) {
				c.logger.Info("model artifact changed, cache entry dropped",
					zap.String("path", event.Name), zap.String("op", event.Op.String()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("artifact watcher error", zap.Error(err))
		case <-done:
			return
		}
	}
}

func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.watcher = nil
	c.dirs = make(map[string]bool)
	return err
}
