package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// busMetrics methods are safe on a nil receiver so that a Bus without
// metrics needs no checks at call sites.
type busMetrics struct {
	emits         *prometheus.CounterVec
	handlerErrors *prometheus.CounterVec
	listeners     *prometheus.GaugeVec
	evictions     prometheus.Counter
}

func newBusMetrics(reg prometheus.Registerer) (*busMetrics, error) {
	m := &busMetrics{
		emits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riolauncher",
				Subsystem: "eventbus",
				Name:      "emits_total",
				Help:      "Total number of emitted events",
			}, []string{"event"},
		),
		handlerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "riolauncher",
				Subsystem: "eventbus",
				Name:      "handler_errors_total",
				Help:      "Total number of handlers that returned an error or panicked",
			}, []string{"event"},
		),
		listeners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "riolauncher",
				Subsystem: "eventbus",
				Name:      "listeners",
				Help:      "Current number of handlers per event",
			}, []string{"event"},
		),
		evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "riolauncher",
				Subsystem: "eventbus",
				Name:      "history_evictions_total",
				Help:      "Total number of history entries dropped to make room",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.emits, m.handlerErrors, m.listeners, m.evictions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *busMetrics) emitted(event string) {
	if m == nil {
		return
	}
	m.emits.WithLabelValues(event).Inc()
}

func (m *busMetrics) handlerFailed(event string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(event).Inc()
}

func (m *busMetrics) setListeners(event string, n int) {
	if m == nil {
		return
	}
	m.listeners.WithLabelValues(event).Set(float64(n))
}

func (m *busMetrics) historyEvicted() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}
