package riolauncher

import "github.com/danpasecinic/riolauncher/internal/container"

// Replace swaps the factory and options of an existing registration that has
// not produced an instance yet. It is meant for tests that substitute fakes.
func (r *Registry) Replace(name string, factory Factory, opts ...RegisterOption) error {
	cfg := &registerConfig{singleton: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return r.internal.Replace(
		container.Registration{
			Name:         name,
			Factory:      factory,
			Singleton:    cfg.singleton,
			Dependencies: cfg.dependencies,
			Decorators:   cfg.decorators,
		},
	)
}

func (r *Registry) MustReplace(name string, factory Factory, opts ...RegisterOption) {
	if err := r.Replace(name, factory, opts...); err != nil {
		panic(err)
	}
}
