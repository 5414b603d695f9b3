package container

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/reflect"
)

type chainKey struct{}

// chainFrom returns the names being resolved by the current call chain.
func chainFrom(ctx context.Context) []string {
	if chain, ok := ctx.Value(chainKey{}).([]string); ok {
		return chain
	}
	return nil
}

func withChain(ctx context.Context, name string) context.Context {
	chain := append(slices.Clone(chainFrom(ctx)), name)
	return context.WithValue(ctx, chainKey{}, chain)
}

func (c *Container) Get(ctx context.Context, name string) (Service, error) {
	start := time.Now()
	svc, err := c.resolve(ctx, name)
	c.callResolveHooks(name, time.Since(start), err)
	return svc, err
}

func (c *Container) callResolveHooks(name string, duration time.Duration, err error) {
	for _, hook := range c.onResolve {
		hook(name, duration, err)
	}
}

func (c *Container) resolve(ctx context.Context, name string) (Service, error) {
	chain := chainFrom(ctx)
	if slices.Contains(chain, name) {
		return nil, apperr.CircularDependency(append(slices.Clone(chain), name))
	}

	d, exists := c.descriptors.Get(name)
	if !exists {
		return nil, apperr.ServiceNotFound(name)
	}

	if !d.Singleton {
		return c.build(withChain(ctx, name), d)
	}

	if d.State == StateReady {
		return d.Instance, nil
	}

	return c.awaitSingleton(ctx, name)
}

// awaitSingleton joins the pending initialization of name, starting it when
// none is in flight. The shared call runs detached from any single caller's
// cancellation; a caller whose context ends stops waiting and the call
// finishes for everyone else.
func (c *Container) awaitSingleton(ctx context.Context, name string) (Service, error) {
	shared := context.WithoutCancel(withChain(ctx, name))

	ch := c.inflight.DoChan(
		name, func() (any, error) {
			return c.initializeSingleton(shared, name)
		},
	)

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Service), nil
	case <-ctx.Done():
		return nil, apperr.Normalize(ctx.Err()).WithService(name)
	}
}

func (c *Container) initializeSingleton(ctx context.Context, name string) (Service, error) {
	if !c.descriptors.Begin(name) {
		if instance, ok := c.descriptors.Instance(name); ok {
			return instance, nil
		}
		if !c.descriptors.Has(name) {
			return nil, apperr.ServiceNotFound(name)
		}
		return nil, apperr.ServiceNotInitialized(name)
	}

	d, _ := c.descriptors.Get(name)
	c.logger.Debug("initializing service", zap.String("service", name))

	start := time.Now()
	instance, err := c.build(ctx, d)
	duration := time.Since(start)

	if err != nil {
		c.descriptors.Fail(name, err)
		c.logger.Warn(
			"service initialization failed",
			zap.String("service", name),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		c.callInitHooks(name, duration, err)
		return nil, err
	}

	c.descriptors.Ready(name, instance)
	c.logger.Info("service ready", zap.String("service", name), zap.Duration("duration", duration))
	c.callInitHooks(name, duration, nil)
	return instance, nil
}

// build makes every declared dependency ready in declared order, then runs
// the factory, the decorators and the instance's Initialize.
func (c *Container) build(ctx context.Context, d Descriptor) (svc Service, err error) {
	for _, dep := range d.Dependencies {
		if !c.descriptors.Has(dep) {
			return nil, apperr.MissingDependency(d.Name, dep)
		}
		if _, err := c.Get(ctx, dep); err != nil {
			return nil, apperr.InitializationFailed(d.Name, fmt.Errorf("dependency %s: %w", dep, err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			svc = nil
			err = apperr.InitializationFailed(d.Name, apperr.Normalize(r))
		}
	}()

	instance, err := d.Factory(ctx, c)
	if err != nil {
		return nil, apperr.InitializationFailed(d.Name, err)
	}
	if reflect.IsNil(instance) {
		return nil, apperr.InitializationFailed(d.Name, errors.New("factory returned a nil service"))
	}

	instance, err = c.applyDecorators(ctx, d, instance)
	if err != nil {
		return nil, apperr.InitializationFailed(d.Name, err)
	}

	if err := instance.Initialize(ctx); err != nil {
		return nil, initializationFailed(d.Name, err)
	}

	return instance, nil
}

// initializationFailed wraps err unless it already reports the failed
// initialization of name, as lifecycle.Base does.
func initializationFailed(name string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) && e.Code == apperr.ErrCodeInitializationFailed && e.Service == name {
		return err
	}
	return apperr.InitializationFailed(name, err)
}

func (c *Container) GetSync(name string) (Service, error) {
	d, exists := c.descriptors.Get(name)
	if !exists {
		return nil, apperr.ServiceNotFound(name)
	}
	if d.State != StateReady {
		return nil, apperr.ServiceNotInitialized(name)
	}
	return d.Instance, nil
}
