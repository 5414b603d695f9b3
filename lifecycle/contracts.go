package lifecycle

import (
	"time"
)

// Telemetry receives events, errors and timings from services. Calls are
// skipped when Enabled reports false.
type Telemetry interface {
	TrackEvent(name string, props map[string]any)
	TrackError(err error, context map[string]any)
	TrackPerformance(metric string, duration time.Duration)
	Enabled() bool
}

// NopTelemetry is the Telemetry used when none is configured.
type NopTelemetry struct{}

func (NopTelemetry) TrackEvent(string, map[string]any) {}

func (NopTelemetry) TrackError(error, map[string]any) {}

func (NopTelemetry) TrackPerformance(string, time.Duration) {}

func (NopTelemetry) Enabled() bool { return false }

// Notifier surfaces a message to the user.
type Notifier interface {
	Show(title, message string, actions ...string)
}

type NopNotifier struct{}

func (NopNotifier) Show(string, string, ...string) {}

// Cache is the store behind Cached. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}
