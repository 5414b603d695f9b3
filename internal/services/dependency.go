package services

import (
	"context"
	"os/exec"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

// Installed is the payload of dependency:installed.
type Installed struct {
	Name string
	Path string
}

// Missing is the payload of dependency:missing.
type Missing struct {
	Name string
	Err  error
}

// Dependency locates the executables the launcher needs. Lookups are cached
// so that repeated checks do not walk PATH again.
type Dependency struct {
	*lifecycle.Base

	bus      eventbus.Publisher
	required []string
	lookup   func(ctx context.Context, binary string) (string, error)
}

func NewDependency(deps Deps, bus eventbus.Publisher, cache lifecycle.Cache) *Dependency {
	cfg := deps.config()

	d := &Dependency{
		bus:      bus,
		required: []string{cfg.Rio.Binary},
	}
	d.lookup = lifecycle.Cached(
		cache, func(binary string) string { return "dependency:" + binary }, cfg.Cache.TTL.Duration,
		func(_ context.Context, binary string) (string, error) {
			return exec.LookPath(binary)
		},
	)
	d.Base = lifecycle.NewBase(DependencyName, deps.baseOptions(lifecycle.WithInit(d.checkRequired))...)
	return d
}

// checkRequired reports missing binaries without failing startup so the
// launcher can still offer to install them.
func (d *Dependency) checkRequired(ctx context.Context) error {
	for _, binary := range d.required {
		if _, err := d.Check(ctx, binary); err != nil {
			d.Logger().Warn("required binary not found", zap.String("binary", binary), zap.Error(err))
		}
	}
	return nil
}

// Check resolves binary on PATH and announces the result.
func (d *Dependency) Check(ctx context.Context, binary string) (string, error) {
	path, err := d.lookup(ctx, binary)
	if err != nil {
		d.bus.Emit(ctx, eventbus.DependencyMissing, Missing{Name: binary, Err: err})
		return "", apperr.New(apperr.ErrCodeProcess, binary+" is not installed", err)
	}

	d.bus.Emit(ctx, eventbus.DependencyInstalled, Installed{Name: binary, Path: path})
	return path, nil
}
