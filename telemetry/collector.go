// Package telemetry implements the lifecycle.Telemetry collaborator on top
// of Prometheus and zap, and sets up OpenTelemetry tracing.
package telemetry

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

var _ lifecycle.Telemetry = (*Collector)(nil)

// Collector records events, errors and timings. All methods are no-ops
// while the collector is disabled.
type Collector struct {
	sessionID string
	enabled   atomic.Bool
	logger    *zap.Logger

	events      *prometheus.CounterVec
	errors      *prometheus.CounterVec
	performance *prometheus.HistogramVec
}

// Option configures a Collector.
type Option func(*collectorConfig)

type collectorConfig struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	disabled   bool
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *collectorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegisterer registers the collector's metrics with reg instead of
// prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *collectorConfig) {
		c.registerer = reg
	}
}

// Disabled starts the collector switched off.
func Disabled() Option {
	return func(c *collectorConfig) {
		c.disabled = true
	}
}

// NewCollector creates a Collector with a fresh session id.
func NewCollector(opts ...Option) (*Collector, error) {
	cfg := collectorConfig{
		logger:     zap.NewNop(),
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sessionID := uuid.NewString()
	c := &Collector{
		sessionID: sessionID,
		logger:    cfg.logger.Named("telemetry").With(zap.String("session", sessionID)),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riolauncher_telemetry_events_total",
				Help: "Total number of tracked events",
			}, []string{"event"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riolauncher_telemetry_errors_total",
				Help: "Total number of tracked errors by code",
			}, []string{"code"},
		),
		performance: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riolauncher_operation_duration_seconds",
				Help:    "Duration of tracked operations",
				Buckets: prometheus.DefBuckets,
			}, []string{"metric"},
		),
	}
	c.enabled.Store(!cfg.disabled)

	var err error
	if c.events, err = register(cfg.registerer, c.events); err != nil {
		return nil, err
	}
	if c.errors, err = register(cfg.registerer, c.errors); err != nil {
		return nil, err
	}
	if c.performance, err = register(cfg.registerer, c.performance); err != nil {
		return nil, err
	}

	return c, nil
}

// register adds c to reg, reusing the collector already registered under the
// same name so that several collectors can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// SessionID identifies this process run in logs.
func (c *Collector) SessionID() string {
	return c.sessionID
}

func (c *Collector) Enabled() bool {
	return c.enabled.Load()
}

// SetEnabled switches collection on or off at runtime.
func (c *Collector) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

func (c *Collector) TrackEvent(name string, props map[string]any) {
	if !c.Enabled() {
		return
	}
	c.events.WithLabelValues(name).Inc()
	c.logger.Debug("event", zap.String("event", name), zap.Any("props", props))
}

func (c *Collector) TrackError(err error, fields map[string]any) {
	if !c.Enabled() || err == nil {
		return
	}
	code := apperr.CodeOf(err).String()
	c.errors.WithLabelValues(code).Inc()
	c.logger.Warn("error", zap.String("code", code), zap.Any("context", fields), zap.Error(err))
}

func (c *Collector) TrackPerformance(metric string, d time.Duration) {
	if !c.Enabled() {
		return
	}
	c.performance.WithLabelValues(metric).Observe(d.Seconds())
	c.logger.Debug("performance", zap.String("metric", metric), zap.Duration("duration", d))
}
