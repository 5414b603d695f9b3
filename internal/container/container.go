package container

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/graph"
)

type ResolveHook func(name string, duration time.Duration, err error)

type RegisterHook func(name string)

type InitHook func(name string, duration time.Duration, err error)

type CleanupHook func(name string, duration time.Duration, err error)

type Container struct {
	mu             sync.RWMutex
	descriptors    *Descriptors
	graph          *graph.Graph
	logger         *zap.Logger
	closed         bool
	strict         bool
	parallel       bool
	cleanupTimeout time.Duration

	// inflight holds the pending initialization shared by concurrent Get
	// calls for the same singleton.
	inflight singleflight.Group

	onResolve  []ResolveHook
	onRegister []RegisterHook
	onInit     []InitHook
	onCleanup  []CleanupHook
}

type Config struct {
	Logger *zap.Logger

	// Strict rejects registrations whose dependencies are not registered yet.
	Strict         bool
	Parallel       bool
	CleanupTimeout time.Duration

	OnResolve  []ResolveHook
	OnRegister []RegisterHook
	OnInit     []InitHook
	OnCleanup  []CleanupHook
}

func New(cfg *Config) *Container {
	if cfg == nil {
		cfg = &Config{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Container{
		descriptors:    NewDescriptors(),
		graph:          graph.New(),
		logger:         logger,
		strict:         cfg.Strict,
		parallel:       cfg.Parallel,
		cleanupTimeout: cfg.CleanupTimeout,
		onResolve:      cfg.OnResolve,
		onRegister:     cfg.OnRegister,
		onInit:         cfg.OnInit,
		onCleanup:      cfg.OnCleanup,
	}
}

type Registration struct {
	Name         string
	Factory      Factory
	Singleton    bool
	Dependencies []string
	Decorators   []DecoratorFunc
}

// Register adds a descriptor. The dependency graph is checked before the
// descriptor becomes visible, so a rejected registration leaves nothing
// behind.
func (c *Container) Register(reg Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return apperr.RegistryClosed()
	}
	if reg.Name == "" {
		return apperr.New(apperr.ErrCodeValidationFailed, "service name cannot be empty", nil)
	}
	if reg.Factory == nil {
		return apperr.New(apperr.ErrCodeValidationFailed, "service factory cannot be nil", nil).
			WithService(reg.Name)
	}
	if c.descriptors.Has(reg.Name) {
		return apperr.DuplicateService(reg.Name)
	}

	c.graph.AddNode(reg.Name, reg.Dependencies)

	if cyclePath := c.graph.FindCyclePath(reg.Name); cyclePath != nil {
		c.graph.RemoveNode(reg.Name)
		return apperr.CircularDependency(cyclePath)
	}

	if c.strict {
		for _, dep := range reg.Dependencies {
			if !c.descriptors.Has(dep) {
				c.graph.RemoveNode(reg.Name)
				return apperr.MissingDependency(reg.Name, dep)
			}
		}
	}

	c.descriptors.Add(
		&Descriptor{
			Name:         reg.Name,
			Factory:      reg.Factory,
			Singleton:    reg.Singleton,
			Dependencies: append([]string(nil), reg.Dependencies...),
			Decorators:   append([]DecoratorFunc(nil), reg.Decorators...),
			State:        StateRegistered,
		},
	)

	c.logger.Debug(
		"service registered",
		zap.String("service", reg.Name),
		zap.Strings("dependencies", reg.Dependencies),
		zap.Bool("singleton", reg.Singleton),
	)

	for _, hook := range c.onRegister {
		hook(reg.Name)
	}

	return nil
}

func (c *Container) Has(name string) bool {
	return c.descriptors.Has(name)
}

func (c *Container) Names() []string {
	return c.descriptors.Names()
}

func (c *Container) Size() int {
	return c.descriptors.Size()
}

func (c *Container) Descriptor(name string) (Descriptor, bool) {
	return c.descriptors.Get(name)
}

func (c *Container) GetInstance(name string) (Service, bool) {
	return c.descriptors.Instance(name)
}

func (c *Container) State(name string) (State, bool) {
	d, ok := c.descriptors.Get(name)
	if !ok {
		return 0, false
	}
	return d.State, true
}

func (c *Container) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// Validate reports the first missing dependency in registration order.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.graph.TopologicalSort()
	return mapGraphError(err)
}

func (c *Container) StartupOrder() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	order, err := c.graph.StartupOrder()
	if err != nil {
		return nil, mapGraphError(err)
	}
	return order, nil
}

func (c *Container) Graph() *graph.Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.graph.Clone()
}

func mapGraphError(err error) error {
	if err == nil {
		return nil
	}

	var cycleErr *graph.CycleError
	if errors.As(err, &cycleErr) {
		return apperr.CircularDependency(cycleErr.Path)
	}

	var missingErr *graph.MissingError
	if errors.As(err, &missingErr) {
		return apperr.MissingDependency(missingErr.Node, missingErr.Dependency)
	}

	return err
}
