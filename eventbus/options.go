package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type busConfig struct {
	historyCapacity int
	logger          *zap.Logger
	registerer      prometheus.Registerer
}

// Option configures a Bus.
type Option func(*busConfig)

// WithHistoryCapacity sets how many events History retains.
func WithHistoryCapacity(capacity int) Option {
	return func(c *busConfig) {
		if capacity > 0 {
			c.historyCapacity = capacity
		}
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics registers the bus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *busConfig) {
		c.registerer = reg
	}
}
