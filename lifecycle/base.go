// Package lifecycle provides the state machine and helpers shared by every
// hosted service: idempotent initialization and cleanup, retry with
// exponential backoff, debouncing, throttling, performance tracking and
// error normalization.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danpasecinic/riolauncher/apperr"
)

const instrumentationName = "github.com/danpasecinic/riolauncher/lifecycle"

// State is the lifecycle state of a service.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Hook is a user supplied initialization or cleanup step.
type Hook func(ctx context.Context) error

// Option is a functional option for configuring Base
type Option func(*Base)

// Base implements Initialize and Cleanup for the service embedding it.
// Concurrent Initialize calls share a single run of the init hook; a failed
// run leaves the service uninitialized so that it can be retried.
type Base struct {
	name      string
	logger    *zap.Logger
	telemetry Telemetry
	notifier  Notifier
	tracer    trace.Tracer

	onInit    Hook
	onCleanup Hook

	mu       sync.Mutex
	state    State
	readyAt  time.Time
	inflight singleflight.Group
}

// NewBase creates a Base for the service called name.
func NewBase(name string, opts ...Option) *Base {
	b := &Base{
		name:      name,
		logger:    zap.NewNop(),
		telemetry: NopTelemetry{},
		notifier:  NopNotifier{},
		tracer:    otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.logger = b.logger.With(zap.String("service", name))
	return b
}

// WithInit sets the hook run by Initialize.
func WithInit(hook Hook) Option {
	return func(b *Base) {
		b.onInit = hook
	}
}

// WithCleanup sets the hook run by Cleanup.
func WithCleanup(hook Hook) Option {
	return func(b *Base) {
		b.onCleanup = hook
	}
}

// WithLogger sets a custom logger for the service
func WithLogger(logger *zap.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTelemetry sets the collaborator that receives timings and errors.
func WithTelemetry(t Telemetry) Option {
	return func(b *Base) {
		if t != nil {
			b.telemetry = t
		}
	}
}

// WithNotifier sets the surface used by HandleError.
func WithNotifier(n Notifier) Option {
	return func(b *Base) {
		if n != nil {
			b.notifier = n
		}
	}
}

// WithTracer sets the OpenTelemetry tracer used by TrackPerformance.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Base) {
		if tracer != nil {
			b.tracer = tracer
		}
	}
}

// Name returns the service name
func (b *Base) Name() string {
	return b.name
}

func (b *Base) Logger() *zap.Logger {
	return b.logger
}

func (b *Base) Telemetry() Telemetry {
	return b.telemetry
}

// State returns the current lifecycle state
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Base) IsReady() bool {
	return b.State() == StateReady
}

// Uptime is the time since the service last became ready, or zero.
func (b *Base) Uptime() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateReady {
		return 0
	}
	return time.Since(b.readyAt)
}

// Initialize runs the init hook once. Calls made while a run is in flight
// wait for that run; calls made after success return nil immediately. A
// caller whose ctx ends stops waiting without aborting the run.
func (b *Base) Initialize(ctx context.Context) error {
	if b.IsReady() {
		return nil
	}

	shared := context.WithoutCancel(ctx)
	ch := b.inflight.DoChan(
		"initialize", func() (any, error) {
			return nil, b.initialize(shared)
		},
	)

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return apperr.Normalize(ctx.Err()).WithService(b.name)
	}
}

func (b *Base) initialize(ctx context.Context) error {
	b.mu.Lock()
	if b.state == StateReady {
		b.mu.Unlock()
		return nil
	}
	b.state = StateInitializing
	b.mu.Unlock()

	err := b.TrackPerformance(ctx, "initialize", b.runHook(b.onInit))

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.state = StateUninitialized
		return apperr.InitializationFailed(b.name, err)
	}

	b.state = StateReady
	b.readyAt = time.Now()
	b.logger.Info("service initialized")
	return nil
}

// Cleanup runs the cleanup hook when the service is ready and returns it to
// the uninitialized state, even when the hook fails. It is a no-op for a
// service that is not ready.
func (b *Base) Cleanup(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateReady {
		b.mu.Unlock()
		return nil
	}
	b.state = StateUninitialized
	b.mu.Unlock()

	if err := b.TrackPerformance(ctx, "cleanup", b.runHook(b.onCleanup)); err != nil {
		return apperr.CleanupFailed(b.name, err)
	}

	b.logger.Info("service cleaned up")
	return nil
}

func (b *Base) runHook(hook Hook) func(ctx context.Context) error {
	return func(ctx context.Context) (err error) {
		if hook == nil {
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("hook panicked: %w", apperr.Normalize(r))
			}
		}()
		return hook(ctx)
	}
}
