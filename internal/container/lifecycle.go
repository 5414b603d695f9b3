package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danpasecinic/riolauncher/apperr"
)

// InitializeAll resolves every singleton in startup order. It stops at the
// first failure and leaves already ready services in place.
func (c *Container) InitializeAll(ctx context.Context) error {
	if c.Closed() {
		return apperr.RegistryClosed()
	}

	if c.parallel {
		return c.initializeParallel(ctx)
	}
	return c.initializeSequential(ctx)
}

func (c *Container) initializeSequential(ctx context.Context) error {
	order, err := c.StartupOrder()
	if err != nil {
		return err
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return apperr.Normalize(err)
		}
		if !c.isSingleton(name) {
			continue
		}
		if _, err := c.Get(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

func (c *Container) initializeParallel(ctx context.Context) error {
	groups, err := c.graph.ParallelStartupGroups()
	if err != nil {
		return mapGraphError(err)
	}

	for _, group := range groups {
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range group.Nodes {
			if !c.isSingleton(name) {
				continue
			}
			g.Go(
				func() error {
					_, err := c.Get(gctx, name)
					return err
				},
			)
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Container) isSingleton(name string) bool {
	d, exists := c.descriptors.Get(name)
	return exists && d.Singleton
}

func (c *Container) callInitHooks(name string, duration time.Duration, err error) {
	for _, hook := range c.onInit {
		hook(name, duration, err)
	}
}

// CleanupAll tears down ready singletons, dependents before their
// dependencies. Failures are logged and collected; teardown always runs to
// the end, after which the table is cleared and the container is closed.
// Cancellation of ctx does not skip any Cleanup; the cleanup timeout bounds
// each service on its own.
func (c *Container) CleanupAll(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	// Every ready instance is cleaned up even when the caller is already done.
	ctx = context.WithoutCancel(ctx)

	var errs error
	if c.parallel {
		errs = c.cleanupParallel(ctx)
	} else {
		errs = c.cleanupSequential(ctx)
	}

	c.descriptors.Clear()
	c.graph.Clear()

	if errs != nil {
		c.logger.Warn("registry cleanup finished with errors", zap.Error(errs))
	} else {
		c.logger.Info("registry cleaned up")
	}

	return errs
}

func (c *Container) cleanupSequential(ctx context.Context) error {
	var errs error
	for _, name := range c.graph.TeardownOrder() {
		errs = multierr.Append(errs, c.cleanupService(ctx, name))
	}
	return errs
}

func (c *Container) cleanupParallel(ctx context.Context) error {
	groups, err := c.graph.ParallelShutdownGroups()
	if err != nil {
		c.logger.Debug("falling back to sequential cleanup", zap.Error(err))
		return c.cleanupSequential(ctx)
	}

	var (
		mu   sync.Mutex
		errs error
	)
	for _, group := range groups {
		var wg sync.WaitGroup
		for _, name := range group.Nodes {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := c.cleanupService(ctx, name); err != nil {
					mu.Lock()
					errs = multierr.Append(errs, err)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
	}

	return errs
}

func (c *Container) cleanupService(ctx context.Context, name string) error {
	instance, ok := c.descriptors.Instance(name)
	if !ok {
		return nil
	}

	start := time.Now()
	err := runCleanup(ctx, name, instance, c.cleanupTimeout)
	duration := time.Since(start)

	if err != nil {
		err = apperr.CleanupFailed(name, err)
		c.logger.Error(
			"service cleanup failed",
			zap.String("service", name),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		c.logger.Debug("service cleaned up", zap.String("service", name), zap.Duration("duration", duration))
	}

	for _, hook := range c.onCleanup {
		hook(name, duration, err)
	}

	return err
}

// runCleanup calls the instance's Cleanup and, when timeout is set, races it
// against a timer. A cleanup that outlives the timer keeps running; its
// result is discarded.
func runCleanup(ctx context.Context, name string, instance Service, timeout time.Duration) error {
	cancel := func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("cleanup panicked: %w", apperr.Normalize(r))
			}
		}()
		done <- instance.Cleanup(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apperr.Timeout("cleanup of "+name, ctx.Err())
	}
}
