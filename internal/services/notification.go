package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

var _ lifecycle.Notifier = (*Notification)(nil)

// Notice is the payload of notification:shown.
type Notice struct {
	Title   string
	Message string
	Actions []string
	At      time.Time
}

// DefaultNotificationWindow is how long an identical notice is suppressed.
const DefaultNotificationWindow = 2 * time.Second

// Notification publishes user-facing notices. Repeats of the same title and
// message inside the window are dropped.
type Notification struct {
	*lifecycle.Base

	bus    eventbus.Publisher
	window time.Duration

	mu        sync.Mutex
	throttles map[string]*lifecycle.Throttler[Notice]
}

func NewNotification(deps Deps, bus eventbus.Publisher) *Notification {
	n := &Notification{
		bus:       bus,
		window:    DefaultNotificationWindow,
		throttles: make(map[string]*lifecycle.Throttler[Notice]),
	}
	n.Base = lifecycle.NewBase(
		NotificationName, deps.baseOptions(
			lifecycle.WithCleanup(
				func(context.Context) error {
					n.mu.Lock()
					clear(n.throttles)
					n.mu.Unlock()
					return nil
				},
			),
		)...,
	)
	return n
}

// SetWindow changes the suppression window for notices shown afterwards.
func (n *Notification) SetWindow(window time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.window = window
	clear(n.throttles)
}

// Show publishes a notice unless an identical one was shown within the
// window.
func (n *Notification) Show(title, message string, actions ...string) {
	notice := Notice{Title: title, Message: message, Actions: actions, At: time.Now()}
	n.throttle(title + "\x00" + message).Call(notice)
}

func (n *Notification) throttle(key string) *lifecycle.Throttler[Notice] {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.throttles[key]
	if !ok {
		t = lifecycle.Throttle(n.deliver, n.window)
		n.throttles[key] = t
	}
	return t
}

func (n *Notification) deliver(notice Notice) {
	n.Logger().Info("notification", zap.String("title", notice.Title), zap.String("message", notice.Message))
	n.bus.Emit(context.Background(), eventbus.NotificationShown, notice)
}
