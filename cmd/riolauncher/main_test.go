package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danpasecinic/riolauncher"
	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/config"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags([]string{"-config", "/etc/riolauncher.toml", "-launch=false", "--", "-e", "htop"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "/etc/riolauncher.toml", opts.configPath)
	assert.False(t, opts.launch)
	assert.Equal(t, []string{"-e", "htop"}, opts.args)

	_, err = parseFlags([]string{"-h"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRegistryOptions(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.Len(t, registryOptions(cfg, nil, prometheus.NewRegistry()), 3)

	cfg.Registry.Parallel = true
	cfg.Registry.Strict = true
	assert.Len(t, registryOptions(cfg, nil, prometheus.NewRegistry()), 5)
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "riolauncher.toml")
	content := "[rio]\nbinary = \"sh\"\nconfig_path = \"" + filepath.Join(dir, "rio.toml") + "\"\n" +
		"[logging]\noutput_paths = [\"" + filepath.Join(dir, "riolauncher.log") + "\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_PrintsGraph(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-config", writeConfig(t), "-graph"}, &out, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "eventBus")
	assert.Contains(t, out.String(), "process")
}

func TestRun_StartsAndStops(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := run(ctx, []string{"-config", writeConfig(t), "-launch=false"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.NoError(t, err)
}

type stubService struct {
	initErr    error
	cleanupErr error
}

func (s stubService) Initialize(context.Context) error { return s.initErr }

func (s stubService) Cleanup(context.Context) error { return s.cleanupErr }

func stubFactory(svc stubService) riolauncher.Factory {
	return func(context.Context, riolauncher.Resolver) (riolauncher.Service, error) {
		return svc, nil
	}
}

func TestInitialize_LogsCleanupFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	reg := riolauncher.New()
	reg.MustRegister("eventBus", stubFactory(stubService{cleanupErr: errors.New("bus still draining")}))
	reg.MustRegister(
		"process", stubFactory(stubService{initErr: errors.New("rio not found")}),
		riolauncher.WithDependencies("eventBus"),
	)

	err := initialize(context.Background(), reg, zap.New(core))
	assert.True(t, apperr.IsInitializationFailed(err))
	assert.ErrorContains(t, err, "rio not found")

	entries := logs.FilterMessage("cleanup after failed startup").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "bus still draining")
	assert.Equal(t, 0, reg.Size())
}

func TestInitialize_QuietWhenCleanupSucceeds(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	reg := riolauncher.New()
	reg.MustRegister("process", stubFactory(stubService{initErr: errors.New("rio not found")}))

	require.Error(t, initialize(context.Background(), reg, zap.New(core)))
	assert.Zero(t, logs.Len())
}
