package services

import (
	"context"

	"github.com/danpasecinic/riolauncher/eventbus"
	"github.com/danpasecinic/riolauncher/lifecycle"
)

// EventBus hosts the shared bus. Cleanup drops all subscriptions and the
// recorded history.
type EventBus struct {
	*lifecycle.Base
	*eventbus.Bus
}

func NewEventBus(deps Deps) *EventBus {
	bus := eventbus.New(
		eventbus.WithHistoryCapacity(deps.config().Events.HistoryCapacity),
		eventbus.WithLogger(deps.logger()),
		eventbus.WithMetrics(deps.Metrics),
	)

	return &EventBus{
		Bus: bus,
		Base: lifecycle.NewBase(
			EventBusName, deps.baseOptions(
				lifecycle.WithCleanup(
					func(context.Context) error {
						bus.Clear()
						return nil
					},
				),
			)...,
		),
	}
}
