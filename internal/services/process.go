package services

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/config"
	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

// Launched is the payload of rio:launched.
type Launched struct {
	ID        string
	PID       int
	Binary    string
	Args      []string
	StartedAt time.Time
}

// Exited is the payload of rio:exited.
type Exited struct {
	ID       string
	PID      int
	ExitCode int
	Err      error
	Runtime  time.Duration
}

// Process starts terminal windows. Launched terminals are not tied to the
// launcher's lifetime; cleanup only stops tracking them.
type Process struct {
	*lifecycle.Base

	bus        eventbus.Publisher
	rio        config.RioConfig
	configPath string

	mu      sync.Mutex
	running map[string]Launched
}

func NewProcess(deps Deps, bus eventbus.Publisher, cfg *Configuration, notifier lifecycle.Notifier) *Process {
	p := &Process{
		bus:        bus,
		rio:        deps.config().Rio,
		configPath: cfg.Path(),
		running:    make(map[string]Launched),
	}
	p.Base = lifecycle.NewBase(
		ProcessName, deps.baseOptions(
			lifecycle.WithNotifier(notifier),
			lifecycle.WithCleanup(
				func(context.Context) error {
					p.mu.Lock()
					clear(p.running)
					p.mu.Unlock()
					return nil
				},
			),
		)...,
	)
	return p
}

// Launch starts a terminal with the configured arguments followed by args
// and announces it on rio:launched. rio:exited follows when it ends.
func (p *Process) Launch(ctx context.Context, args ...string) (Launched, error) {
	launched, err := lifecycle.Track(ctx, p.Base, "launch", func(ctx context.Context) (Launched, error) {
		return p.start(args)
	})
	if err != nil {
		return Launched{}, p.HandleError(ctx, err, "Rio could not be started")
	}

	p.bus.Emit(ctx, eventbus.RioLaunched, launched)
	return launched, nil
}

func (p *Process) start(extra []string) (Launched, error) {
	args := append(append([]string{}, p.rio.Args...), extra...)

	cmd := exec.Command(p.rio.Binary, args...)
	cmd.Env = append(os.Environ(), "RIO_CONFIG_HOME="+filepath.Dir(p.configPath))

	if err := cmd.Start(); err != nil {
		return Launched{}, apperr.New(apperr.ErrCodeProcess, "failed to start "+p.rio.Binary, err)
	}

	launched := Launched{
		ID:        uuid.NewString(),
		PID:       cmd.Process.Pid,
		Binary:    p.rio.Binary,
		Args:      args,
		StartedAt: time.Now(),
	}

	p.mu.Lock()
	p.running[launched.ID] = launched
	p.mu.Unlock()

	p.Logger().Info("rio launched", zap.String("id", launched.ID), zap.Int("pid", launched.PID))
	go p.wait(cmd, launched)

	return launched, nil
}

func (p *Process) wait(cmd *exec.Cmd, launched Launched) {
	err := cmd.Wait()

	exited := Exited{
		ID:       launched.ID,
		PID:      launched.PID,
		ExitCode: -1,
		Runtime:  time.Since(launched.StartedAt),
	}
	if cmd.ProcessState != nil {
		exited.ExitCode = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		exited.Err = err
	}

	p.mu.Lock()
	delete(p.running, launched.ID)
	p.mu.Unlock()

	p.Logger().Info("rio exited", zap.String("id", launched.ID), zap.Int("exit_code", exited.ExitCode))
	p.bus.Emit(context.Background(), eventbus.RioExited, exited)
}

// Running returns the terminals that have not exited yet.
func (p *Process) Running() []Launched {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Launched, 0, len(p.running))
	for _, l := range p.running {
		out = append(out, l)
	}
	return out
}

// HealthCheck fails when the terminal binary cannot be found.
func (p *Process) HealthCheck(context.Context) error {
	if _, err := exec.LookPath(p.rio.Binary); err != nil {
		return apperr.New(apperr.ErrCodeProcess, p.rio.Binary+" not found", err)
	}
	return nil
}
