package container

import (
	"context"
	"sync"
)

type Service interface {
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

type Factory func(ctx context.Context, r Resolver) (Service, error)

type DecoratorFunc func(ctx context.Context, r Resolver, svc Service) (Service, error)

type Resolver interface {
	Get(ctx context.Context, name string) (Service, error)
	GetSync(name string) (Service, error)
	Has(name string) bool
}

type State int

const (
	StateRegistered State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

type Descriptor struct {
	Name         string
	Factory      Factory
	Singleton    bool
	Dependencies []string
	Decorators   []DecoratorFunc
	State        State
	Instance     Service
	LastErr      error
}

// Descriptors is the registration table. Lookups hand out copies so callers
// never observe a descriptor mid-transition.
type Descriptors struct {
	mu      sync.RWMutex
	entries map[string]*Descriptor
	order   []string
}

func NewDescriptors() *Descriptors {
	return &Descriptors{
		entries: make(map[string]*Descriptor),
	}
}

func (t *Descriptors) Add(d *Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[d.Name]; !exists {
		t.order = append(t.order, d.Name)
	}
	t.entries[d.Name] = d
}

func (t *Descriptors) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, exists := t.entries[name]
	return exists
}

func (t *Descriptors) Get(name string) (Descriptor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	d, exists := t.entries[name]
	if !exists {
		return Descriptor{}, false
	}

	snapshot := *d
	snapshot.Dependencies = append([]string(nil), d.Dependencies...)
	snapshot.Decorators = append([]DecoratorFunc(nil), d.Decorators...)
	return snapshot, true
}

func (t *Descriptors) Instance(name string) (Service, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	d, exists := t.entries[name]
	if !exists || d.State != StateReady {
		return nil, false
	}
	return d.Instance, true
}

// Begin moves a registered descriptor to Initializing. It reports false when
// the descriptor is gone or not in the Registered state.
func (t *Descriptors) Begin(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, exists := t.entries[name]
	if !exists || d.State != StateRegistered {
		return false
	}
	d.State = StateInitializing
	return true
}

func (t *Descriptors) Ready(name string, instance Service) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d, exists := t.entries[name]; exists {
		d.Instance = instance
		d.State = StateReady
		d.LastErr = nil
	}
}

// Fail reverts an initializing descriptor to Registered so a later Get can
// retry it.
func (t *Descriptors) Fail(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d, exists := t.entries[name]; exists {
		d.Instance = nil
		d.State = StateRegistered
		d.LastErr = err
	}
}

func (t *Descriptors) AddDecorator(name string, decorator DecoratorFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, exists := t.entries[name]
	if !exists {
		return false
	}
	d.Decorators = append(d.Decorators, decorator)
	return true
}

// Names returns registered names in registration order.
func (t *Descriptors) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

func (t *Descriptors) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

func (t *Descriptors) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[name]; !exists {
		return
	}
	delete(t.entries, name)

	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *Descriptors) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[string]*Descriptor)
	t.order = nil
}
