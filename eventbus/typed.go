package eventbus

import (
	"context"
	"fmt"
	"time"
)

// Subscribe registers a handler that receives the payload as T. Events whose
// payload is not a T are reported as handler errors.
func Subscribe[T any](p Publisher, event string, fn func(ctx context.Context, payload T) error) (Subscription, func()) {
	return p.On(
		event, func(ctx context.Context, e Event) error {
			payload, err := payloadAs[T](e)
			if err != nil {
				return err
			}
			return fn(ctx, payload)
		},
	)
}

// WaitForPayload is WaitFor returning the payload as T.
func WaitForPayload[T any](ctx context.Context, p Publisher, event string, timeout time.Duration) (T, error) {
	e, err := p.WaitFor(ctx, event, timeout)
	if err != nil {
		var zero T
		return zero, err
	}
	return payloadAs[T](e)
}

func payloadAs[T any](e Event) (T, error) {
	payload, ok := e.Payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("event %s: payload is %T, not %T", e.Name, e.Payload, zero)
	}
	return payload, nil
}
