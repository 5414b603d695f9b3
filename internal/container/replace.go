package container

import (
	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
)

// Replace swaps the registration of name. It is only allowed while the
// service has not produced an instance; the previous registration is
// restored when the new dependencies would close a cycle.
func (c *Container) Replace(reg Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return apperr.RegistryClosed()
	}
	if reg.Factory == nil {
		return apperr.New(apperr.ErrCodeValidationFailed, "service factory cannot be nil", nil).
			WithService(reg.Name)
	}

	previous, exists := c.descriptors.Get(reg.Name)
	if !exists {
		return apperr.ServiceNotFound(reg.Name)
	}
	if previous.State != StateRegistered {
		return apperr.New(
			apperr.ErrCodeValidationFailed,
			"cannot replace a service that is initializing or ready",
			nil,
		).WithService(reg.Name)
	}

	c.graph.AddNode(reg.Name, reg.Dependencies)
	if cyclePath := c.graph.FindCyclePath(reg.Name); cyclePath != nil {
		c.graph.AddNode(previous.Name, previous.Dependencies)
		return apperr.CircularDependency(cyclePath)
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

	c.logger.Debug("service replaced", zap.String("service", reg.Name))
	return nil
}
