// Package registrytest provides helpers for tests that build a registry.
package registrytest

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/danpasecinic/riolauncher"
)

// TestRegistry is a registry whose services are cleaned up when the test
// ends and whose logs go to the test log.
type TestRegistry struct {
	*riolauncher.Registry
	tb testing.TB
}

func New(tb testing.TB, opts ...riolauncher.Option) *TestRegistry {
	tb.Helper()

	opts = append([]riolauncher.Option{riolauncher.WithLogger(zaptest.NewLogger(tb))}, opts...)
	reg := riolauncher.New(opts...)
	tr := &TestRegistry{
		Registry: reg,
		tb:       tb,
	}

	tb.Cleanup(
		func() {
			if err := reg.CleanupAll(context.Background()); err != nil {
				tb.Errorf("failed to clean up registry: %v", err)
			}
		},
	)

	return tr
}

func (tr *TestRegistry) RequireInitializeAll(ctx context.Context) {
	tr.tb.Helper()

	if err := tr.InitializeAll(ctx); err != nil {
		tr.tb.Fatalf("failed to initialize registry: %v", err)
	}
}

func (tr *TestRegistry) RequireCleanupAll(ctx context.Context) {
	tr.tb.Helper()

	if err := tr.CleanupAll(ctx); err != nil {
		tr.tb.Fatalf("failed to clean up registry: %v", err)
	}
}

func (tr *TestRegistry) RequireValidate() {
	tr.tb.Helper()

	if err := tr.Validate(); err != nil {
		tr.tb.Fatalf("registry validation failed: %v", err)
	}
}

func (tr *TestRegistry) MustRegister(name string, factory riolauncher.Factory, opts ...riolauncher.RegisterOption) {
	tr.tb.Helper()

	if err := tr.Register(name, factory, opts...); err != nil {
		tr.tb.Fatalf("failed to register %s: %v", name, err)
	}
}

// RegisterValue registers an already constructed service under name.
func RegisterValue(tr *TestRegistry, name string, svc riolauncher.Service, opts ...riolauncher.RegisterOption) {
	tr.tb.Helper()

	tr.MustRegister(name, valueFactory(svc), opts...)
}

// Replace swaps the registration of name for a fixed instance.
func Replace(tr *TestRegistry, name string, svc riolauncher.Service, opts ...riolauncher.RegisterOption) {
	tr.tb.Helper()

	if err := tr.Registry.Replace(name, valueFactory(svc), opts...); err != nil {
		tr.tb.Fatalf("failed to replace %s: %v", name, err)
	}
}

func valueFactory(svc riolauncher.Service) riolauncher.Factory {
	return func(context.Context, riolauncher.Resolver) (riolauncher.Service, error) {
		return svc, nil
	}
}

func MustGet[T any](tr *TestRegistry, name string) T {
	tr.tb.Helper()

	v, err := riolauncher.Get[T](context.Background(), tr.Registry, name)
	if err != nil {
		tr.tb.Fatalf("failed to get %s: %v", name, err)
	}
	return v
}

func AssertHas(tr *TestRegistry, name string) {
	tr.tb.Helper()

	if !tr.Has(name) {
		tr.tb.Fatalf("expected registry to have %s", name)
	}
}

func AssertNotHas(tr *TestRegistry, name string) {
	tr.tb.Helper()

	if tr.Has(name) {
		tr.tb.Fatalf("expected registry to not have %s", name)
	}
}

func AssertState(tr *TestRegistry, name string, want riolauncher.State) {
	tr.tb.Helper()

	got, ok := tr.State(name)
	if !ok {
		tr.tb.Fatalf("service %s is not registered", name)
	}
	if got != want {
		tr.tb.Fatalf("expected %s to be %s, got %s", name, want, got)
	}
}
