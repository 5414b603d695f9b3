package container

import (
	"context"
	"fmt"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/reflect"
)

// AddDecorator appends a decorator to a service that has not been built
// yet. Decorators run in registration order right after the factory.
func (c *Container) AddDecorator(name string, decorator DecoratorFunc) error {
	d, exists := c.descriptors.Get(name)
	if !exists {
		return apperr.ServiceNotFound(name)
	}
	if d.State != StateRegistered {
		return apperr.New(
			apperr.ErrCodeValidationFailed,
			"cannot decorate a service that is already initialized",
			nil,
		).WithService(name)
	}

	c.descriptors.AddDecorator(name, decorator)
	return nil
}

func (c *Container) applyDecorators(ctx context.Context, d Descriptor, instance Service) (Service, error) {
	if len(d.Decorators) == 0 {
		return instance, nil
	}

	var err error
	for i, decorator := range d.Decorators {
		instance, err = decorator(ctx, c, instance)
		if err != nil {
			return nil, fmt.Errorf("decorator %d failed for %s: %w", i, d.Name, err)
		}
		if reflect.IsNil(instance) {
			return nil, fmt.Errorf("decorator %d returned a nil service for %s", i, d.Name)
		}
	}

	return instance, nil
}
