// Package services holds the services riolauncher hosts in its registry.
// Each embeds lifecycle.Base and talks to the others through the event bus.
package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher"
	"github.com/danpasecinic/riolauncher/config"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

const (
	EventBusName      = "eventBus"
	CacheName         = "cache"
	ConfigurationName = "configuration"
	NotificationName  = "notification"
	DependencyName    = "dependency"
	ProcessName       = "process"
)

// Deps carries what every service is built from.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry lifecycle.Telemetry
	Metrics   prometheus.Registerer
}

func (d Deps) config() *config.Config {
	if d.Config == nil {
		return config.Default()
	}
	return d.Config
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Deps) baseOptions(extra ...lifecycle.Option) []lifecycle.Option {
	opts := []lifecycle.Option{
		lifecycle.WithLogger(d.logger()),
		lifecycle.WithTelemetry(d.Telemetry),
	}
	return append(opts, extra...)
}

// Module registers every hosted service with its dependencies.
func Module(deps Deps) *riolauncher.Module {
	return riolauncher.NewModule("services").
		Register(
			EventBusName, riolauncher.FactoryOf(
				func(context.Context, riolauncher.Resolver) (*EventBus, error) {
					return NewEventBus(deps), nil
				},
			),
		).
		Register(
			CacheName, riolauncher.FactoryOf(
				func(ctx context.Context, r riolauncher.Resolver) (*Cache, error) {
					bus, err := riolauncher.Get[*EventBus](ctx, r, EventBusName)
					if err != nil {
						return nil, err
					}
					return NewCache(deps, bus), nil
				},
			),
			riolauncher.WithDependencies(EventBusName),
		).
		Register(
			ConfigurationName, riolauncher.FactoryOf(
				func(ctx context.Context, r riolauncher.Resolver) (*Configuration, error) {
					bus, err := riolauncher.Get[*EventBus](ctx, r, EventBusName)
					if err != nil {
						return nil, err
					}
					return NewConfiguration(deps, bus), nil
				},
			),
			riolauncher.WithDependencies(EventBusName),
		).
		Register(
			NotificationName, riolauncher.FactoryOf(
				func(ctx context.Context, r riolauncher.Resolver) (*Notification, error) {
					bus, err := riolauncher.Get[*EventBus](ctx, r, EventBusName)
					if err != nil {
						return nil, err
					}
					return NewNotification(deps, bus), nil
				},
			),
			riolauncher.WithDependencies(EventBusName),
		).
		Register(
			DependencyName, riolauncher.FactoryOf(
				func(ctx context.Context, r riolauncher.Resolver) (*Dependency, error) {
					bus, err := riolauncher.Get[*EventBus](ctx, r, EventBusName)
					if err != nil {
						return nil, err
					}
					cache, err := riolauncher.Get[*Cache](ctx, r, CacheName)
					if err != nil {
						return nil, err
					}
					return NewDependency(deps, bus, cache), nil
				},
			),
			riolauncher.WithDependencies(EventBusName, CacheName),
		).
		Register(
			ProcessName, riolauncher.FactoryOf(
				func(ctx context.Context, r riolauncher.Resolver) (*Process, error) {
					bus, err := riolauncher.Get[*EventBus](ctx, r, EventBusName)
					if err != nil {
						return nil, err
					}
					cfg, err := riolauncher.Get[*Configuration](ctx, r, ConfigurationName)
					if err != nil {
						return nil, err
					}
					notifier, err := riolauncher.Get[*Notification](ctx, r, NotificationName)
					if err != nil {
						return nil, err
					}
					return NewProcess(deps, bus, cfg, notifier), nil
				},
			),
			riolauncher.WithDependencies(EventBusName, ConfigurationName, NotificationName),
		)
}
