package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/riolauncher/apperr"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riolauncher.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "rio", cfg.Rio.Binary)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.Events.HistoryCapacity)
	assert.Equal(t, 10*time.Second, cfg.Registry.CleanupTimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Rio.WatchDebounce.Duration)
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Cache, cfg.Cache)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(
		t, `
[rio]
binary = "/opt/rio/bin/rio"
args = ["--working-dir", "/tmp"]
watch_debounce = "1s"

[logging]
level = "debug"

[registry]
parallel = true
cleanup_timeout = "3s"

[events]
history_capacity = 50
`,
	)

	t.Setenv("RIOLAUNCHER_LOGGING_LEVEL", "warn")
	t.Setenv("RIOLAUNCHER_EVENTS_HISTORY_CAPACITY", "75")
	t.Setenv("RIOLAUNCHER_TELEMETRY_OTLP_ENDPOINT", "http://localhost:4318")

	cfg, err := Load(path)
	require.NoError(t, err)

	// file over defaults
	assert.Equal(t, "/opt/rio/bin/rio", cfg.Rio.Binary)
	assert.Equal(t, []string{"--working-dir", "/tmp"}, cfg.Rio.Args)
	assert.Equal(t, time.Second, cfg.Rio.WatchDebounce.Duration)
	assert.True(t, cfg.Registry.Parallel)
	assert.Equal(t, 3*time.Second, cfg.Registry.CleanupTimeout.Duration)

	// environment over file
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 75, cfg.Events.HistoryCapacity)
	assert.Equal(t, "http://localhost:4318", cfg.Telemetry.OTLPEndpoint)

	// untouched defaults
	assert.Equal(t, 256, cfg.Cache.MaxEntries)
}

func TestLoad_EnvDuration(t *testing.T) {
	t.Setenv("RIOLAUNCHER_REGISTRY_CLEANUP_TIMEOUT", "750ms")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Registry.CleanupTimeout.Duration)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{
			name:    "malformed toml",
			content: "[rio\nbinary = ",
			want:    "failed to parse",
		},
		{
			name:    "unknown field",
			content: "[rio]\nshell = \"zsh\"\n",
			want:    "failed to parse",
		},
		{
			name:    "invalid level",
			content: "[logging]\nlevel = \"chatty\"\n",
			want:    "logging.level must be one of",
		},
		{
			name:    "empty binary",
			content: "[rio]\nbinary = \"\"\n",
			want:    "rio.binary is required",
		},
		{
			name:    "sample ratio out of range",
			content: "[telemetry]\nsample_ratio = 2.0\n",
			want:    "telemetry.sampleratio failed lte=1",
		},
		{
			name:    "negative duration",
			content: "[cache]\nttl = \"-1s\"\n",
			want:    "cache.ttl must not be negative",
		},
		{
			name:    "bad env",
			content: "",
			env:     map[string]string{"RIOLAUNCHER_EVENTS_HISTORY_CAPACITY": "many"},
			want:    "invalid environment override",
		},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				for k, v := range tt.env {
					t.Setenv(k, v)
				}

				_, err := Load(writeFile(t, tt.content))
				require.Error(t, err)
				assert.Equal(t, apperr.ErrCodeConfiguration, apperr.CodeOf(err))
				assert.Contains(t, err.Error(), tt.want)
			},
		)
	}
}

func TestDuration_Text(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
