package lifecycle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Debouncer delays fn until wait has passed without another Call. Only the
// argument of the last Call is delivered.
type Debouncer[T any] struct {
	fn   func(T)
	wait time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	pending    bool
	last       T
}

// Debounce returns a trailing edge debouncer for fn.
func Debounce[T any](fn func(T), wait time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		fn:   fn,
		wait: wait,
	}
}

// Call records arg and restarts the quiet period.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = arg
	d.pending = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
	}

	gen := d.generation
	d.timer = time.AfterFunc(
		d.wait, func() {
			d.fire(gen)
		},
	)
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.generation {
		d.mu.Unlock()
		return
	}
	arg := d.last
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(arg)
}

// Flush delivers a pending call immediately.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.generation
	d.mu.Unlock()

	d.fire(gen)
}

// Stop drops a pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = false
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a call is waiting to fire.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Throttler runs fn at most once per limit. The first call runs at once;
// calls inside the window are dropped and never replayed.
type Throttler[T any] struct {
	fn      func(T)
	limiter *rate.Limiter
}

func Throttle[T any](fn func(T), limit time.Duration) *Throttler[T] {
	return &Throttler[T]{
		fn:      fn,
		limiter: rate.NewLimiter(rate.Every(limit), 1),
	}
}

// Call runs fn when the window allows it and reports whether it ran.
func (t *Throttler[T]) Call(arg T) bool {
	if !t.limiter.Allow() {
		return false
	}
	t.fn(arg)
	return true
}
