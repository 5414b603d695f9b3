package riolauncher

import (
	"context"

	"github.com/danpasecinic/riolauncher/internal/container"
)

// Service is anything the registry can initialize and clean up.
type Service = container.Service

type Resolver = container.Resolver

type Factory = container.Factory

type DecoratorFunc = container.DecoratorFunc

type State = container.State

const (
	StateRegistered   = container.StateRegistered
	StateInitializing = container.StateInitializing
	StateReady        = container.StateReady
)

type RegisterOption func(*registerConfig)

type registerConfig struct {
	singleton    bool
	dependencies []string
	decorators   []DecoratorFunc
}

// WithDependencies declares the services that must be ready before this
// one is built, in the order they are made ready.
func WithDependencies(deps ...string) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.dependencies = append(cfg.dependencies, deps...)
	}
}

// WithTransient builds a fresh instance on every Get. Transient instances
// are owned by the caller and never cleaned up by the registry.
func WithTransient() RegisterOption {
	return func(cfg *registerConfig) {
		cfg.singleton = false
	}
}

func WithDecorator(decorator DecoratorFunc) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.decorators = append(cfg.decorators, decorator)
	}
}

// Decorate wraps the instance of a typed service right after its factory
// runs.
func Decorate[T Service](r *Registry, name string, decorator func(ctx context.Context, r Resolver, svc T) (T, error)) error {
	return r.internal.AddDecorator(
		name, func(ctx context.Context, res container.Resolver, svc Service) (Service, error) {
			typed, ok := svc.(T)
			if !ok {
				return nil, typeMismatch[T](name, svc)
			}
			out, err := decorator(ctx, res, typed)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	)
}

// NopService is embedded by values that need no initialization or cleanup.
type NopService struct{}

func (NopService) Initialize(context.Context) error { return nil }

func (NopService) Cleanup(context.Context) error { return nil }

// FactoryOf adapts a typed constructor into a Factory.
func FactoryOf[T Service](fn func(ctx context.Context, r Resolver) (T, error)) Factory {
	return func(ctx context.Context, r Resolver) (Service, error) {
		svc, err := fn(ctx, r)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
