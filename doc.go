// Package riolauncher hosts the services of the Rio launcher: a registry of
// named services with declared dependencies, built lazily and at most once,
// initialized in dependency order and torn down in reverse.
//
// # Quick Start
//
// Construct one registry per process and register factories by name:
//
//	reg := riolauncher.New(riolauncher.WithLogger(logger))
//
//	reg.Register("eventBus", func(ctx context.Context, r riolauncher.Resolver) (riolauncher.Service, error) {
//	    return services.NewEventBus(), nil
//	})
//
//	reg.Register("configuration", newConfiguration,
//	    riolauncher.WithDependencies("eventBus"))
//
//	reg.Run(ctx)
//
// # Services
//
// A service implements Initialize and Cleanup. Factories receive a Resolver
// and fetch their declared dependencies from it:
//
//	bus, err := riolauncher.Get[*eventbus.Bus](ctx, r, "eventBus")
//
// Singletons are the default. Concurrent Get calls for a singleton that is
// still being built share one build. A failed build leaves the service
// registered so that a later Get can try again. WithTransient registers a
// service that is built fresh on every Get and is never cleaned up by the
// registry.
//
// # Ordering
//
// Dependencies form a graph that must stay acyclic; a registration closing a
// cycle is rejected. InitializeAll builds every singleton in a deterministic
// depth-first order over registration order, dependencies first. CleanupAll
// runs Cleanup on ready singletons in the reverse order, keeps going past
// failures and returns them combined. A registry that has been cleaned up
// accepts no further registrations.
//
// Dependencies may be registered after their dependents. Missing
// dependencies are reported by Validate, InitializeAll and Get; use
// WithStrictDependencies to reject them at registration instead.
//
// # Field Injection
//
// Struct fields tagged with the service name are filled from the registry:
//
//	type Process struct {
//	    Bus    *eventbus.Bus         `service:"eventBus"`
//	    Config *services.Configuration `service:"configuration"`
//	    Cache  *services.Cache       `service:"cache,optional"`
//	}
//	riolauncher.RegisterStruct[*Process](reg, "process")
//
// # Modules
//
// Modules group registrations:
//
//	core := riolauncher.NewModule("core").
//	    Register("eventBus", newEventBus).
//	    Register("cache", newCache, riolauncher.WithDependencies("eventBus"))
//	reg.Apply(core)
//
// # Observability
//
// Observers are called on registration, lookup, initialization and cleanup.
// WithPrometheus feeds them into Prometheus collectors. Health, Live and
// Ready probe ready services that implement HealthChecker or
// ReadinessChecker. FprintGraph and FprintGraphDOT describe the graph.
package riolauncher
