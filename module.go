package riolauncher

import "github.com/danpasecinic/riolauncher/apperr"

// Module groups registrations so a feature area can be added to a registry
// in one call.
type Module struct {
	name          string
	registrations []moduleRegistration
	submodules    []*Module
}

type moduleRegistration struct {
	name    string
	factory Factory
	opts    []RegisterOption
}

func NewModule(name string) *Module {
	return &Module{
		name: name,
	}
}

func (m *Module) Name() string {
	return m.name
}

func (m *Module) Register(name string, factory Factory, opts ...RegisterOption) *Module {
	m.registrations = append(
		m.registrations, moduleRegistration{
			name:    name,
			factory: factory,
			opts:    opts,
		},
	)
	return m
}

func (m *Module) Include(submodule *Module) *Module {
	m.submodules = append(m.submodules, submodule)
	return m
}

// Services lists the names the module registers, submodules first.
func (m *Module) Services() []string {
	var names []string
	for _, sub := range m.submodules {
		names = append(names, sub.Services()...)
	}
	for _, reg := range m.registrations {
		names = append(names, reg.name)
	}
	return names
}

func (m *Module) apply(r *Registry) error {
	for _, sub := range m.submodules {
		if err := sub.apply(r); err != nil {
			return err
		}
	}

	for _, reg := range m.registrations {
		if err := r.Register(reg.name, reg.factory, reg.opts...); err != nil {
			return err
		}
	}

	return nil
}

// Apply registers every module in order. It stops at the first failing
// registration; registrations made before it stay in place.
func (r *Registry) Apply(modules ...*Module) error {
	for _, m := range modules {
		if err := m.apply(r); err != nil {
			return apperr.New(
				apperr.ErrCodeValidationFailed,
				"failed to apply module "+m.name,
				err,
			)
		}
	}
	return nil
}
