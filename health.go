package riolauncher

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danpasecinic/riolauncher/apperr"
)

type HealthStatus string

const (
	HealthStatusUp   HealthStatus = "up"
	HealthStatusDown HealthStatus = "down"
)

type HealthReport struct {
	Name    string
	Status  HealthStatus
	Error   error
	Latency time.Duration
}

// HealthChecker is implemented by services that can report liveness, such
// as the process service probing the terminal it launched.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ReadinessChecker interface {
	ReadinessCheck(ctx context.Context) error
}

func (r *Registry) Live(ctx context.Context) error {
	return firstDown(r.Health(ctx))
}

func (r *Registry) Ready(ctx context.Context) error {
	return firstDown(
		r.check(
			ctx, func(svc Service) (func(context.Context) error, bool) {
				rc, ok := svc.(ReadinessChecker)
				if !ok {
					return nil, false
				}
				return rc.ReadinessCheck, true
			},
		),
	)
}

// Health probes every ready service implementing HealthChecker. Reports are
// sorted by service name.
func (r *Registry) Health(ctx context.Context) []HealthReport {
	return r.check(
		ctx, func(svc Service) (func(context.Context) error, bool) {
			hc, ok := svc.(HealthChecker)
			if !ok {
				return nil, false
			}
			return hc.HealthCheck, true
		},
	)
}

func firstDown(reports []HealthReport) error {
	for _, report := range reports {
		if report.Status == HealthStatusDown {
			return apperr.HealthCheckFailed(report.Name, report.Error)
		}
	}
	return nil
}

func (r *Registry) check(ctx context.Context, probeOf func(Service) (func(context.Context) error, bool)) []HealthReport {
	var (
		reports []HealthReport
		mu      sync.Mutex
		wg      sync.WaitGroup
	)

	for _, name := range r.internal.Names() {
		instance, ok := r.internal.GetInstance(name)
		if !ok {
			continue
		}

		probe, ok := probeOf(instance)
		if !ok {
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			err := probe(ctx)

			report := HealthReport{
				Name:    name,
				Status:  HealthStatusUp,
				Latency: time.Since(start),
			}
			if err != nil {
				report.Status = HealthStatusDown
				report.Error = err
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
		}()
	}

	wg.Wait()

	sort.Slice(
		reports, func(i, j int) bool {
			return reports[i].Name < reports[j].Name
		},
	)
	return reports
}
