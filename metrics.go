package riolauncher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/riolauncher/internal/container"
)

type ResolveHook = container.ResolveHook

type RegisterHook = container.RegisterHook

type InitHook = container.InitHook

type CleanupHook = container.CleanupHook

// Metrics are the Prometheus collectors fed by the registry observers.
type Metrics struct {
	Registrations prometheus.Counter
	Ready         prometheus.Gauge
	Resolutions   *prometheus.CounterVec
	InitDuration  *prometheus.HistogramVec
	Cleanups      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riolauncher_service_registrations_total",
				Help: "Total number of services registered",
			},
		),
		Ready: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "riolauncher_services_ready",
				Help: "Number of singleton services currently ready",
			},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riolauncher_service_resolutions_total",
				Help: "Total number of service lookups by result",
			},
			[]string{"service", "result"},
		),
		InitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riolauncher_service_init_duration_seconds",
				Help:    "Service initialization duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "result"},
		),
		Cleanups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riolauncher_service_cleanups_total",
				Help: "Total number of service cleanups by result",
			},
			[]string{"service", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Registrations, m.Ready, m.Resolutions, m.InitDuration, m.Cleanups)
	}

	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// WithPrometheus records registry activity into collectors registered on
// reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	m := NewMetrics(reg)
	return WithMetrics(m)
}

func WithMetrics(m *Metrics) Option {
	return func(cfg *registryConfig) {
		cfg.onRegister = append(
			cfg.onRegister, func(string) {
				m.Registrations.Inc()
			},
		)
		cfg.onResolve = append(
			cfg.onResolve, func(name string, _ time.Duration, err error) {
				m.Resolutions.WithLabelValues(name, result(err)).Inc()
			},
		)
		cfg.onInit = append(
			cfg.onInit, func(name string, d time.Duration, err error) {
				m.InitDuration.WithLabelValues(name, result(err)).Observe(d.Seconds())
				if err == nil {
					m.Ready.Inc()
				}
			},
		)
		cfg.onCleanup = append(
			cfg.onCleanup, func(name string, _ time.Duration, err error) {
				m.Ready.Dec()
				m.Cleanups.WithLabelValues(name, result(err)).Inc()
			},
		)
	}
}
