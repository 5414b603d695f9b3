package benchmark

import (
	"context"

	"github.com/samber/do/v2"
	"go.uber.org/dig"
	"go.uber.org/fx"

	"github.com/danpasecinic/riolauncher"
)

// Every container builds the launcher graph: the event bus feeds cache,
// configuration and notification; dependency needs the bus and cache;
// process needs the bus, configuration and notification.

func value[T riolauncher.Service](v T) riolauncher.Factory {
	return riolauncher.FactoryOf(
		func(context.Context, riolauncher.Resolver) (T, error) {
			return v, nil
		},
	)
}

func registerLauncher(r *riolauncher.Registry, s stage) {
	_ = r.Register("eventBus", value(&EventBus{stage: s}))
	_ = r.Register(
		"cache", riolauncher.FactoryOf(
			func(ctx context.Context, res riolauncher.Resolver) (*Cache, error) {
				return &Cache{stage: s, Bus: riolauncher.MustGet[*EventBus](ctx, res, "eventBus")}, nil
			},
		),
		riolauncher.WithDependencies("eventBus"),
	)
	_ = r.Register(
		"configuration", riolauncher.FactoryOf(
			func(ctx context.Context, res riolauncher.Resolver) (*Configuration, error) {
				return &Configuration{stage: s, Bus: riolauncher.MustGet[*EventBus](ctx, res, "eventBus")}, nil
			},
		),
		riolauncher.WithDependencies("eventBus"),
	)
	_ = r.Register(
		"notification", riolauncher.FactoryOf(
			func(ctx context.Context, res riolauncher.Resolver) (*Notification, error) {
				return &Notification{stage: s, Bus: riolauncher.MustGet[*EventBus](ctx, res, "eventBus")}, nil
			},
		),
		riolauncher.WithDependencies("eventBus"),
	)
	_ = r.Register(
		"dependency", riolauncher.FactoryOf(
			func(ctx context.Context, res riolauncher.Resolver) (*Dependency, error) {
				return &Dependency{
					stage: s,
					Bus:   riolauncher.MustGet[*EventBus](ctx, res, "eventBus"),
					Cache: riolauncher.MustGet[*Cache](ctx, res, "cache"),
				}, nil
			},
		),
		riolauncher.WithDependencies("eventBus", "cache"),
	)
	_ = r.Register(
		"process", riolauncher.FactoryOf(
			func(ctx context.Context, res riolauncher.Resolver) (*Process, error) {
				return &Process{
					stage:        s,
					Bus:          riolauncher.MustGet[*EventBus](ctx, res, "eventBus"),
					Config:       riolauncher.MustGet[*Configuration](ctx, res, "configuration"),
					Notification: riolauncher.MustGet[*Notification](ctx, res, "notification"),
				}, nil
			},
		),
		riolauncher.WithDependencies("eventBus", "configuration", "notification"),
	)
}

// provideLauncherDo runs each stage's start-up inside its provider, since do
// has no separate initialize step.
func provideLauncherDo(injector do.Injector, s stage) {
	do.Provide(
		injector, func(do.Injector) (*EventBus, error) {
			return &EventBus{stage: s}, s.Initialize(context.Background())
		},
	)
	do.Provide(
		injector, func(i do.Injector) (*Cache, error) {
			svc := &Cache{stage: s, Bus: do.MustInvoke[*EventBus](i)}
			return svc, s.Initialize(context.Background())
		},
	)
	do.Provide(
		injector, func(i do.Injector) (*Configuration, error) {
			svc := &Configuration{stage: s, Bus: do.MustInvoke[*EventBus](i)}
			return svc, s.Initialize(context.Background())
		},
	)
	do.Provide(
		injector, func(i do.Injector) (*Notification, error) {
			svc := &Notification{stage: s, Bus: do.MustInvoke[*EventBus](i)}
			return svc, s.Initialize(context.Background())
		},
	)
	do.Provide(
		injector, func(i do.Injector) (*Dependency, error) {
			svc := &Dependency{stage: s, Bus: do.MustInvoke[*EventBus](i), Cache: do.MustInvoke[*Cache](i)}
			return svc, s.Initialize(context.Background())
		},
	)
	do.Provide(
		injector, func(i do.Injector) (*Process, error) {
			svc := &Process{
				stage:        s,
				Bus:          do.MustInvoke[*EventBus](i),
				Config:       do.MustInvoke[*Configuration](i),
				Notification: do.MustInvoke[*Notification](i),
			}
			return svc, s.Initialize(context.Background())
		},
	)
}

func provideLauncherDig(c *dig.Container) {
	_ = c.Provide(func() *EventBus { return &EventBus{} })
	_ = c.Provide(func(bus *EventBus) *Cache { return &Cache{Bus: bus} })
	_ = c.Provide(func(bus *EventBus) *Configuration { return &Configuration{Bus: bus} })
	_ = c.Provide(func(bus *EventBus) *Notification { return &Notification{Bus: bus} })
	_ = c.Provide(func(bus *EventBus, cache *Cache) *Dependency { return &Dependency{Bus: bus, Cache: cache} })
	_ = c.Provide(
		func(bus *EventBus, cfg *Configuration, n *Notification) *Process {
			return &Process{Bus: bus, Config: cfg, Notification: n}
		},
	)
}

// launcherFx hooks every stage into the fx lifecycle.
func launcherFx(s stage) fx.Option {
	hook := func(lc fx.Lifecycle) {
		lc.Append(fx.Hook{OnStart: s.Initialize, OnStop: s.Cleanup})
	}
	return fx.Options(
		fx.Provide(
			func(lc fx.Lifecycle) *EventBus {
				hook(lc)
				return &EventBus{stage: s}
			},
		),
		fx.Provide(
			func(lc fx.Lifecycle, bus *EventBus) *Cache {
				hook(lc)
				return &Cache{stage: s, Bus: bus}
			},
		),
		fx.Provide(
			func(lc fx.Lifecycle, bus *EventBus) *Configuration {
				hook(lc)
				return &Configuration{stage: s, Bus: bus}
			},
		),
		fx.Provide(
			func(lc fx.Lifecycle, bus *EventBus) *Notification {
				hook(lc)
				return &Notification{stage: s, Bus: bus}
			},
		),
		fx.Provide(
			func(lc fx.Lifecycle, bus *EventBus, cache *Cache) *Dependency {
				hook(lc)
				return &Dependency{stage: s, Bus: bus, Cache: cache}
			},
		),
		fx.Provide(
			func(lc fx.Lifecycle, bus *EventBus, cfg *Configuration, n *Notification) *Process {
				hook(lc)
				return &Process{stage: s, Bus: bus, Config: cfg, Notification: n}
			},
		),
	)
}
