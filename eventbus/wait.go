package eventbus

import (
	"context"
	"errors"
	"time"

	"github.com/danpasecinic/riolauncher/apperr"
)

// WaitFor blocks until event is next emitted and returns it. A positive
// timeout bounds the wait; expiry yields a TIMEOUT error. The temporary
// listener is removed on every return path.
func (b *Bus) WaitFor(ctx context.Context, event string, timeout time.Duration) (Event, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	received := make(chan Event, 1)
	_, unsubscribe := b.Once(
		event, func(_ context.Context, e Event) error {
			received <- e
			return nil
		},
	)
	defer unsubscribe()

	select {
	case e := <-received:
		return e, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Event{}, apperr.Timeout("wait for "+event, ctx.Err())
		}
		return Event{}, apperr.Normalize(ctx.Err())
	}
}
