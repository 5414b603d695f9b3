package services

import (
	"context"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

// ConfigSnapshot is the payload of config:loaded and config:changed.
type ConfigSnapshot struct {
	Path     string
	Settings map[string]any
	LoadedAt time.Time
}

// Configuration keeps the terminal's TOML settings in memory and reloads
// them when the file changes on disk. Bursts of writes are coalesced into
// one reload.
type Configuration struct {
	*lifecycle.Base

	bus      eventbus.Publisher
	path     string
	debounce time.Duration
	policy   lifecycle.RetryPolicy

	mu       sync.RWMutex
	settings map[string]any
	loadedAt time.Time

	watcher  *fsnotify.Watcher
	reloader *lifecycle.Debouncer[string]
	done     chan struct{}
}

func NewConfiguration(deps Deps, bus eventbus.Publisher) *Configuration {
	rio := deps.config().Rio

	c := &Configuration{
		bus:      bus,
		path:     filepath.Clean(rio.ConfigPath),
		debounce: rio.WatchDebounce.Duration,
		policy: lifecycle.RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
		},
		settings: map[string]any{},
	}
	c.Base = lifecycle.NewBase(
		ConfigurationName, deps.baseOptions(
			lifecycle.WithInit(c.start),
			lifecycle.WithCleanup(c.stop),
		)...,
	)
	return c
}

// Path is the watched file.
func (c *Configuration) Path() string {
	return c.path
}

// Settings returns a shallow copy of the current settings.
func (c *Configuration) Settings() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.settings)
}

// Value looks up a dotted key such as "window.width".
func (c *Configuration) Value(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var current any = c.settings
	for _, part := range strings.Split(key, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = table[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func (c *Configuration) start(ctx context.Context) error {
	snapshot, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.bus.Emit(ctx, eventbus.ConfigLoaded, snapshot)

	c.reloader = lifecycle.Debounce(
		func(string) {
			_ = c.Reload(context.Background())
		}, c.debounce,
	)

	if err := c.watch(); err != nil {
		c.Logger().Warn("config file will not be watched", zap.String("path", c.path), zap.Error(err))
	}
	return nil
}

// watch follows the parent directory so that editors that replace the file
// through a rename are still seen.
func (c *Configuration) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.watcher = watcher
	c.done = done
	c.mu.Unlock()

	go c.watchLoop(watcher, done)
	return nil
}

func (c *Configuration) watchLoop(watcher *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != c.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				c.reloader.Call(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.Logger().Warn("config watcher error", zap.Error(err))
		}
	}
}

func (c *Configuration) stop(context.Context) error {
	if c.reloader != nil {
		c.reloader.Stop()
	}

	c.mu.Lock()
	watcher, done := c.watcher, c.done
	c.watcher, c.done = nil, nil
	c.mu.Unlock()

	if watcher == nil {
		return nil
	}

	// The watch loop may be mid-Reload, which takes c.mu.
	err := watcher.Close()
	<-done
	return err
}

// Watching reports whether file changes are being followed.
func (c *Configuration) Watching() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watcher != nil
}

// ReadinessCheck fails when the file is not being watched.
func (c *Configuration) ReadinessCheck(context.Context) error {
	if !c.IsReady() || !c.Watching() {
		return apperr.New(apperr.ErrCodeConfiguration, "not watching "+c.path, nil)
	}
	return nil
}

// Reload reads the file again and announces the new settings on
// config:changed. Failures are reported on config:error and through
// HandleError; the previous settings stay in place.
func (c *Configuration) Reload(ctx context.Context) error {
	snapshot, err := c.load(ctx)
	if err != nil {
		c.bus.Emit(ctx, eventbus.ConfigError, err)
		return c.HandleError(ctx, err, "Rio configuration could not be reloaded")
	}

	c.bus.Emit(ctx, eventbus.ConfigChanged, snapshot)
	return nil
}

func (c *Configuration) load(ctx context.Context) (ConfigSnapshot, error) {
	settings, err := lifecycle.RetryValue(
		ctx, c.policy, func(ctx context.Context) (map[string]any, error) {
			return c.read()
		},
	)
	if err != nil {
		return ConfigSnapshot{}, apperr.New(apperr.ErrCodeConfiguration, "failed to load "+c.path, err)
	}

	now := time.Now()
	c.mu.Lock()
	c.settings = settings
	c.loadedAt = now
	c.mu.Unlock()

	return ConfigSnapshot{Path: c.path, Settings: maps.Clone(settings), LoadedAt: now}, nil
}

// read parses the file. A missing file yields empty settings; other read
// errors are not retried.
func (c *Configuration) read() (map[string]any, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, lifecycle.Permanent(err)
	}

	settings := map[string]any{}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}
