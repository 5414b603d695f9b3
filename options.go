package riolauncher

import (
	"time"

	"go.uber.org/zap"
)

type Option func(*registryConfig)

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *registryConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithParallel initializes and cleans up services of the same dependency
// level concurrently.
func WithParallel() Option {
	return func(cfg *registryConfig) {
		cfg.parallel = true
	}
}

// WithStrictDependencies rejects a registration whose dependencies are not
// registered yet.
func WithStrictDependencies() Option {
	return func(cfg *registryConfig) {
		cfg.strict = true
	}
}

// WithCleanupTimeout bounds each service's Cleanup during CleanupAll. A
// service that overruns is reported as timed out and teardown moves on to
// the next one.
func WithCleanupTimeout(timeout time.Duration) Option {
	return func(cfg *registryConfig) {
		cfg.cleanupTimeout = timeout
	}
}

func WithResolveObserver(hook ResolveHook) Option {
	return func(cfg *registryConfig) {
		cfg.onResolve = append(cfg.onResolve, hook)
	}
}

func WithRegisterObserver(hook RegisterHook) Option {
	return func(cfg *registryConfig) {
		cfg.onRegister = append(cfg.onRegister, hook)
	}
}

func WithInitObserver(hook InitHook) Option {
	return func(cfg *registryConfig) {
		cfg.onInit = append(cfg.onInit, hook)
	}
}

func WithCleanupObserver(hook CleanupHook) Option {
	return func(cfg *registryConfig) {
		cfg.onCleanup = append(cfg.onCleanup, hook)
	}
}
