// Command riolauncher hosts the launcher services and starts Rio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher"
	"github.com/danpasecinic/riolauncher/config"
	"github.com/danpasecinic/riolauncher/internal/services"
	"github.com/danpasecinic/riolauncher/logging"
	"github.com/danpasecinic/riolauncher/telemetry"
)

type options struct {
	configPath string
	graph      bool
	dot        bool
	launch     bool
	args       []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("riolauncher", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to riolauncher.toml")
	fs.BoolVar(&opts.graph, "graph", false, "print the service graph and exit")
	fs.BoolVar(&opts.dot, "dot", false, "print the service graph in DOT format and exit")
	fs.BoolVar(&opts.launch, "launch", true, "open a Rio window once services are ready")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.args = fs.Args()
	return opts, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "riolauncher:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(
		logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			OutputPaths: cfg.Logging.OutputPaths,
		},
	)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := telemetry.SetupTracing(
		ctx, telemetry.TracingConfig{
			ServiceName: "riolauncher",
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		},
	)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		stopMetrics := serveMetrics(addr, metrics, logger)
		defer stopMetrics()
	}

	collectorOpts := []telemetry.Option{telemetry.WithLogger(logger), telemetry.WithRegisterer(metrics)}
	if !cfg.Telemetry.Enabled {
		collectorOpts = append(collectorOpts, telemetry.Disabled())
	}
	collector, err := telemetry.NewCollector(collectorOpts...)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	reg := riolauncher.New(registryOptions(cfg, logger, metrics)...)
	deps := services.Deps{
		Config:    cfg,
		Logger:    logger,
		Telemetry: collector,
		Metrics:   metrics,
	}
	if err := reg.Apply(services.Module(deps)); err != nil {
		return err
	}

	switch {
	case opts.dot:
		reg.FprintGraphDOT(stdout)
		return nil
	case opts.graph:
		reg.FprintGraph(stdout)
		return nil
	}

	if err := initialize(ctx, reg, logger); err != nil {
		return err
	}

	if opts.launch {
		process, err := riolauncher.Get[*services.Process](ctx, reg, services.ProcessName)
		if err != nil {
			return err
		}
		if _, err := process.Launch(ctx, opts.args...); err != nil {
			logger.Error("launch failed", zap.Error(err))
		}
	}

	return reg.Run(ctx)
}

// initialize starts every service, tearing down what did start when one
// of them fails.
func initialize(ctx context.Context, reg *riolauncher.Registry, logger *zap.Logger) error {
	err := reg.InitializeAll(ctx)
	if err == nil {
		return nil
	}
	if cerr := reg.CleanupAll(context.WithoutCancel(ctx)); cerr != nil {
		logger.Warn("cleanup after failed startup", zap.Error(cerr))
	}
	return err
}

func registryOptions(cfg *config.Config, logger *zap.Logger, metrics prometheus.Registerer) []riolauncher.Option {
	opts := []riolauncher.Option{
		riolauncher.WithLogger(logger),
		riolauncher.WithCleanupTimeout(cfg.Registry.CleanupTimeout.Duration),
		riolauncher.WithPrometheus(metrics),
	}
	if cfg.Registry.Parallel {
		opts = append(opts, riolauncher.WithParallel())
	}
	if cfg.Registry.Strict {
		opts = append(opts, riolauncher.WithStrictDependencies())
	}
	return opts
}

// serveMetrics exposes the registry on addr until the returned func is
// called.
func serveMetrics(addr string, metrics *prometheus.Registry, logger *zap.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
