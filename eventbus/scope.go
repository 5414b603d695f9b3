package eventbus

import (
	"context"
	"time"
)

// Publisher is the surface shared by Bus and Scoped.
type Publisher interface {
	On(event string, handler Handler) (Subscription, func())
	Once(event string, handler Handler) (Subscription, func())
	Off(event string, id uint64) bool
	Emit(ctx context.Context, event string, payload any)
	WaitFor(ctx context.Context, event string, timeout time.Duration) (Event, error)
	ListenerCount(event string) int
	Scope(prefix string) *Scoped
}

var (
	_ Publisher = (*Bus)(nil)
	_ Publisher = (*Scoped)(nil)
)

// Scoped prefixes event names with "prefix:" before delegating to the root
// bus. It holds no subscriptions of its own.
type Scoped struct {
	bus    *Bus
	prefix string
}

// Scope returns a view of b whose event names are prefixed.
func (b *Bus) Scope(prefix string) *Scoped {
	return &Scoped{bus: b, prefix: prefix}
}

// Scope nests another prefix: bus.Scope("a").Scope("b") emits "a:b:x".
func (s *Scoped) Scope(prefix string) *Scoped {
	return &Scoped{bus: s.bus, prefix: s.name(prefix)}
}

// Prefix returns the full prefix of s.
func (s *Scoped) Prefix() string {
	return s.prefix
}

func (s *Scoped) name(event string) string {
	return s.prefix + ":" + event
}

func (s *Scoped) On(event string, handler Handler) (Subscription, func()) {
	return s.bus.On(s.name(event), handler)
}

func (s *Scoped) Once(event string, handler Handler) (Subscription, func()) {
	return s.bus.Once(s.name(event), handler)
}

func (s *Scoped) Off(event string, id uint64) bool {
	return s.bus.Off(s.name(event), id)
}

func (s *Scoped) Emit(ctx context.Context, event string, payload any) {
	s.bus.Emit(ctx, s.name(event), payload)
}

func (s *Scoped) WaitFor(ctx context.Context, event string, timeout time.Duration) (Event, error) {
	return s.bus.WaitFor(ctx, s.name(event), timeout)
}

func (s *Scoped) ListenerCount(event string) int {
	return s.bus.ListenerCount(s.name(event))
}
