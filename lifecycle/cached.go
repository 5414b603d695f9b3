package lifecycle

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cached wraps fn so that results are stored in cache under key(arg) for
// ttl. Concurrent misses for the same key share one call to fn. Errors are
// never cached.
func Cached[A, T any](
	cache Cache,
	key func(A) string,
	ttl time.Duration,
	fn func(ctx context.Context, arg A) (T, error),
) func(ctx context.Context, arg A) (T, error) {
	var group singleflight.Group

	lookup := func(k string) (T, bool) {
		if v, ok := cache.Get(k); ok {
			if typed, ok := v.(T); ok {
				return typed, true
			}
		}
		var zero T
		return zero, false
	}

	return func(ctx context.Context, arg A) (T, error) {
		k := key(arg)
		if v, ok := lookup(k); ok {
			return v, nil
		}

		v, err, _ := group.Do(
			k, func() (any, error) {
				if v, ok := lookup(k); ok {
					return v, nil
				}
				result, err := fn(ctx, arg)
				if err != nil {
					return nil, err
				}
				cache.Set(k, result, ttl)
				return result, nil
			},
		)
		if err != nil {
			var zero T
			return zero, err
		}
		typed, _ := v.(T)
		return typed, nil
	}
}
