package riolauncher

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/container"
)

// Registry owns the hosted services of one launcher process. Construct one
// with New and pass it to whatever needs it.
type Registry struct {
	internal *container.Container
	config   *registryConfig
}

type registryConfig struct {
	logger         *zap.Logger
	strict         bool
	parallel       bool
	cleanupTimeout time.Duration
	onResolve      []ResolveHook
	onRegister     []RegisterHook
	onInit         []InitHook
	onCleanup      []CleanupHook
}

func New(opts ...Option) *Registry {
	cfg := &registryConfig{
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	internal := container.New(
		&container.Config{
			Logger:         cfg.logger.Named("registry"),
			Strict:         cfg.strict,
			Parallel:       cfg.parallel,
			CleanupTimeout: cfg.cleanupTimeout,
			OnResolve:      cfg.onResolve,
			OnRegister:     cfg.onRegister,
			OnInit:         cfg.onInit,
			OnCleanup:      cfg.onCleanup,
		},
	)

	return &Registry{
		internal: internal,
		config:   cfg,
	}
}

// Register adds a service under name. Dependencies named with
// WithDependencies need not be registered yet: by default a missing one is
// only reported when the graph is sorted or the service is resolved, by
// Validate, StartupOrder, InitializeAll or Get. With WithStrictDependencies
// Register rejects it immediately with a missing-dependency error.
func (r *Registry) Register(name string, factory Factory, opts ...RegisterOption) error {
	cfg := &registerConfig{singleton: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return r.internal.Register(
		container.Registration{
			Name:         name,
			Factory:      factory,
			Singleton:    cfg.singleton,
			Dependencies: cfg.dependencies,
			Decorators:   cfg.decorators,
		},
	)
}

func (r *Registry) MustRegister(name string, factory Factory, opts ...RegisterOption) {
	if err := r.Register(name, factory, opts...); err != nil {
		panic(err)
	}
}

// Get returns the instance registered under name, building it and its
// dependencies first when needed.
func (r *Registry) Get(ctx context.Context, name string) (Service, error) {
	return r.internal.Get(ctx, name)
}

// GetSync returns an already ready instance and never builds one.
func (r *Registry) GetSync(name string) (Service, error) {
	return r.internal.GetSync(name)
}

func (r *Registry) Has(name string) bool {
	return r.internal.Has(name)
}

func (r *Registry) Names() []string {
	return r.internal.Names()
}

func (r *Registry) Size() int {
	return r.internal.Size()
}

func (r *Registry) State(name string) (State, bool) {
	return r.internal.State(name)
}

func (r *Registry) Validate() error {
	if err := r.internal.Validate(); err != nil {
		return apperr.ValidationFailed(err)
	}
	return nil
}

func (r *Registry) StartupOrder() ([]string, error) {
	return r.internal.StartupOrder()
}

func (r *Registry) InitializeAll(ctx context.Context) error {
	return r.internal.InitializeAll(ctx)
}

func (r *Registry) CleanupAll(ctx context.Context) error {
	return r.internal.CleanupAll(ctx)
}

// Run initializes every service, blocks until ctx ends or the process
// receives SIGINT or SIGTERM, then cleans up.
func (r *Registry) Run(ctx context.Context) error {
	if err := r.InitializeAll(ctx); err != nil {
		cleanupErr := r.CleanupAll(context.WithoutCancel(ctx))
		if cleanupErr != nil {
			r.config.logger.Warn("cleanup after failed startup", zap.Error(cleanupErr))
		}
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case sig := <-quit:
		r.config.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	signal.Stop(quit)

	return r.CleanupAll(context.WithoutCancel(ctx))
}
