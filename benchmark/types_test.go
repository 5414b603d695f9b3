package benchmark

import (
	"context"
	"time"
)

// stage stands in for the cost of bringing a launcher service up and down.
type stage struct {
	work time.Duration
}

func (s stage) Initialize(context.Context) error {
	time.Sleep(s.work)
	return nil
}

func (s stage) Cleanup(context.Context) error {
	time.Sleep(s.work)
	return nil
}

// Shutdown lets samber/do tear the graph down the same way.
func (s stage) Shutdown(ctx context.Context) error {
	return s.Cleanup(ctx)
}

type EventBus struct {
	stage
}

type Cache struct {
	stage
	Bus *EventBus
}

type Configuration struct {
	stage
	Bus *EventBus
}

type Notification struct {
	stage
	Bus *EventBus
}

type Dependency struct {
	stage
	Bus   *EventBus
	Cache *Cache
}

type Process struct {
	stage
	Bus          *EventBus
	Config       *Configuration
	Notification *Notification
}
