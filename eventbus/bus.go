// Package eventbus is an in-process publish/subscribe bus with bounded
// history, prefix scoping and one-shot waiting.
//
// Emit is fire-and-forget: handlers run synchronously in subscription order
// over a snapshot taken when Emit is called, and their errors and panics are
// logged and counted but never returned. Work a handler starts on its own
// goroutine is not awaited.
package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/apperr"
)

// DefaultHistoryCapacity is the number of events kept when no capacity is
// configured.
const DefaultHistoryCapacity = 1000

// Event is a single emitted event as seen by handlers and history.
type Event struct {
	Name      string
	Payload   any
	Timestamp time.Time
}

// Handler reacts to an event. A returned error is logged and counted.
type Handler func(ctx context.Context, e Event) error

// Subscription identifies a registered handler.
type Subscription struct {
	ID    uint64
	Event string
	Once  bool
}

type subscriber struct {
	Subscription
	handler Handler
}

// Bus is the root event bus. The zero value is not usable; call New.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscriber
	nextID      uint64

	history *ring[Event]
	logger  *zap.Logger
	metrics *busMetrics
	now     func() time.Time
}

// New creates a Bus.
func New(opts ...Option) *Bus {
	cfg := busConfig{
		historyCapacity: DefaultHistoryCapacity,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		subscribers: make(map[string][]*subscriber),
		history:     newRing[Event](cfg.historyCapacity),
		logger:      cfg.logger.Named("eventbus"),
		now:         time.Now,
	}

	if cfg.registerer != nil {
		m, err := newBusMetrics(cfg.registerer)
		if err != nil {
			b.logger.Warn("event bus metrics disabled", zap.Error(err))
		} else {
			b.metrics = m
		}
	}

	return b
}

// On subscribes handler to event. The returned function removes the
// subscription and is safe to call more than once.
func (b *Bus) On(event string, handler Handler) (Subscription, func()) {
	return b.subscribe(event, handler, false)
}

// Once subscribes handler for the next emit of event only.
func (b *Bus) Once(event string, handler Handler) (Subscription, func()) {
	return b.subscribe(event, handler, true)
}

func (b *Bus) subscribe(event string, handler Handler, once bool) (Subscription, func()) {
	b.mu.Lock()
	b.nextID++
	sub := &subscriber{
		Subscription: Subscription{ID: b.nextID, Event: event, Once: once},
		handler:      handler,
	}
	b.subscribers[event] = append(b.subscribers[event], sub)
	count := len(b.subscribers[event])
	b.mu.Unlock()

	b.metrics.setListeners(event, count)

	return sub.Subscription, func() {
		b.Off(event, sub.ID)
	}
}

// Off removes the subscription with id from event and reports whether it
// was present.
func (b *Bus) Off(event string, id uint64) bool {
	b.mu.Lock()
	subs := b.subscribers[event]
	removed := false
	for i, sub := range subs {
		if sub.ID == id {
			subs = append(subs[:i:i], subs[i+1:]...)
			removed = true
			break
		}
	}
	b.store(event, subs)
	count := len(subs)
	b.mu.Unlock()

	if removed {
		b.metrics.setListeners(event, count)
	}
	return removed
}

// store replaces the subscriber list for event. Callers hold b.mu.
func (b *Bus) store(event string, subs []*subscriber) {
	if len(subs) == 0 {
		delete(b.subscribers, event)
		return
	}
	b.subscribers[event] = subs
}

// Emit records the event in history and invokes every handler subscribed to
// event at the time of the call, in subscription order. Once handlers are
// detached before any handler runs, so they fire at most once even under
// concurrent emits.
func (b *Bus) Emit(ctx context.Context, event string, payload any) {
	e := Event{Name: event, Payload: payload, Timestamp: b.now()}

	b.mu.Lock()
	all := b.subscribers[event]
	snapshot := make([]*subscriber, len(all))
	copy(snapshot, all)

	kept := all[:0:0]
	for _, sub := range all {
		if !sub.Once {
			kept = append(kept, sub)
		}
	}
	b.store(event, kept)
	b.mu.Unlock()

	if len(kept) != len(all) {
		b.metrics.setListeners(event, len(kept))
	}

	if b.history.push(e) {
		b.metrics.historyEvicted()
	}
	b.metrics.emitted(event)

	for _, sub := range snapshot {
		b.dispatch(ctx, sub, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, sub *subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerFailed(sub, e, apperr.Normalize(r), true)
		}
	}()

	if err := sub.handler(ctx, e); err != nil {
		b.handlerFailed(sub, e, err, false)
	}
}

func (b *Bus) handlerFailed(sub *subscriber, e Event, err error, panicked bool) {
	b.metrics.handlerFailed(e.Name)
	b.logger.Error(
		"event handler failed",
		zap.String("event", e.Name),
		zap.Uint64("subscription", sub.ID),
		zap.Bool("panic", panicked),
		zap.Error(err),
	)
}

// ListenerCount returns the number of handlers subscribed to event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[event])
}

// Events returns the names of events that currently have subscribers.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subscribers))
	for name := range b.subscribers {
		names = append(names, name)
	}
	return names
}

// RemoveAll drops every handler subscribed to event.
func (b *Bus) RemoveAll(event string) {
	b.mu.Lock()
	delete(b.subscribers, event)
	b.mu.Unlock()

	b.metrics.setListeners(event, 0)
}

// Clear drops every subscription and the recorded history.
func (b *Bus) Clear() {
	b.mu.Lock()
	events := make([]string, 0, len(b.subscribers))
	for name := range b.subscribers {
		events = append(events, name)
	}
	b.subscribers = make(map[string][]*subscriber)
	b.mu.Unlock()

	for _, name := range events {
		b.metrics.setListeners(name, 0)
	}
	b.ClearHistory()
}
