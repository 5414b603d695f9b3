package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/riolauncher/eventbus"
)

func shown(bus *EventBus) []Notice {
	var out []Notice
	for _, e := range bus.History(eventbus.HistoryFilter{Event: eventbus.NotificationShown}) {
		out = append(out, e.Payload.(Notice))
	}
	return out
}

func TestNotification_SuppressesRepeats(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	bus := NewEventBus(deps)
	n := NewNotification(deps, bus)

	n.Show("process", "Rio could not be started", "Retry")
	n.Show("process", "Rio could not be started", "Retry")
	n.Show("process", "Rio exited")

	notices := shown(bus)
	require.Len(t, notices, 2)
	assert.Equal(t, "Rio could not be started", notices[0].Message)
	assert.Equal(t, []string{"Retry"}, notices[0].Actions)
	assert.Equal(t, "Rio exited", notices[1].Message)
}

func TestNotification_WindowExpires(t *testing.T) {
	t.Parallel()

	deps := testDeps(t)
	bus := NewEventBus(deps)
	n := NewNotification(deps, bus)
	n.SetWindow(20 * time.Millisecond)

	n.Show("cache", "evicted")
	time.Sleep(40 * time.Millisecond)
	n.Show("cache", "evicted")

	assert.Len(t, shown(bus), 2)
}
