package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/eventbus"
)

func TestConfiguration_LoadAndLookup(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	writeRioConfig(
		t, deps.Config.Rio.ConfigPath, `
theme = "dracula"

[window]
width = 1200
height = 800
`,
	)

	bus := NewEventBus(deps)
	cfg := NewConfiguration(deps, bus)
	require.NoError(t, cfg.Initialize(context.Background()))
	t.Cleanup(func() { _ = cfg.Cleanup(context.Background()) })

	v, ok := cfg.Value("window.width")
	require.True(t, ok)
	assert.Equal(t, int64(1200), v)

	_, ok = cfg.Value("window.depth")
	assert.False(t, ok)
	_, ok = cfg.Value("theme.name")
	assert.False(t, ok)

	settings := cfg.Settings()
	settings["theme"] = "mutated"
	v, _ = cfg.Value("theme")
	assert.Equal(t, "dracula", v)

	assert.True(t, cfg.Watching())
	assert.NoError(t, cfg.ReadinessCheck(context.Background()))
}

func TestConfiguration_MissingFile(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	cfg := NewConfiguration(deps, NewEventBus(deps))

	require.NoError(t, cfg.Initialize(context.Background()))
	t.Cleanup(func() { _ = cfg.Cleanup(context.Background()) })

	assert.Empty(t, cfg.Settings())
}

func TestConfiguration_HotReload(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	path := deps.Config.Rio.ConfigPath
	writeRioConfig(t, path, "theme = \"dracula\"\n")

	bus := NewEventBus(deps)
	cfg := NewConfiguration(deps, bus)
	require.NoError(t, cfg.Initialize(context.Background()))
	t.Cleanup(func() { _ = cfg.Cleanup(context.Background()) })

	changed := make(chan ConfigSnapshot, 10)
	eventbus.Subscribe(
		bus, eventbus.ConfigChanged, func(_ context.Context, s ConfigSnapshot) error {
			changed <- s
			return nil
		},
	)

	writeRioConfig(t, path, "theme = \"nord\"\n")

	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case snapshot := <-changed:
			assert.Equal(t, path, snapshot.Path)
			reloaded = snapshot.Settings["theme"] == "nord"
		case <-deadline:
			t.Fatal("config:changed was not emitted")
		}
	}

	v, _ := cfg.Value("theme")
	assert.Equal(t, "nord", v)
}

func TestConfiguration_ReloadKeepsSettingsOnError(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	path := deps.Config.Rio.ConfigPath
	writeRioConfig(t, path, "theme = \"dracula\"\n")

	bus := NewEventBus(deps)
	cfg := NewConfiguration(deps, bus)
	cfg.policy.InitialDelay = time.Millisecond
	cfg.policy.MaxDelay = time.Millisecond
	require.NoError(t, cfg.Initialize(context.Background()))
	require.NoError(t, cfg.Cleanup(context.Background()))

	writeRioConfig(t, path, "theme = \n")
	err := cfg.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeConfiguration, apperr.CodeOf(err))

	v, _ := cfg.Value("theme")
	assert.Equal(t, "dracula", v)
	assert.Len(t, bus.History(eventbus.HistoryFilter{Event: eventbus.ConfigError}), 1)
}

func TestConfiguration_NotReadyWithoutWatcher(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	cfg := NewConfiguration(deps, NewEventBus(deps))

	err := cfg.ReadinessCheck(context.Background())
	assert.Equal(t, apperr.ErrCodeConfiguration, apperr.CodeOf(err))
}

func TestConfiguration_ReadinessDuringCleanup(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	writeRioConfig(t, deps.Config.Rio.ConfigPath, `theme = "dracula"`)

	cfg := NewConfiguration(deps, NewEventBus(deps))
	require.NoError(t, cfg.Initialize(context.Background()))
	require.True(t, cfg.Watching())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = cfg.ReadinessCheck(context.Background())
					_ = cfg.Watching()
				}
			}
		}()
	}

	require.NoError(t, cfg.Cleanup(context.Background()))
	close(stop)
	wg.Wait()

	assert.False(t, cfg.Watching())
	assert.Error(t, cfg.ReadinessCheck(context.Background()))
}
