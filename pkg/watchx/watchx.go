// Package watchx provides small observable-state primitives: a Value[T]
// holding a single current value with replace-on-change notifications,
// and a Latch that settles exactly once.
//
// Subscribers receive the current value on subscription and every
// subsequent replacement. Delivery is latest-wins: a slow subscriber may
// miss intermediate values but always converges on the newest one.
package watchx

import (
	"context"
	"sync"
)

// Value holds a single current value of type T and notifies subscribers
// whenever it is replaced.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue creates a Value seeded with the given initial value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.cur = val
	chans := make([]chan T, 0, len(v.subs))
	for _, ch := range v.subs {
		chans = append(chans, ch)
	}
	v.mu.Unlock()

	for _, ch := range chans {
		deliver(ch, val)
	}
}

// Subscribe registers a new subscriber. The returned channel immediately
// carries the current value, then every replacement. The cancel function
// unregisters the subscriber; it is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	v.mu.Lock()
	id := v.next
	v.next++
	v.subs[id] = ch
	cur := v.cur
	v.mu.Unlock()

	deliver(ch, cur)

	cancel := func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
	return ch, cancel
}

// deliver pushes val into a capacity-1 channel, displacing any undelivered
// older value so the subscriber always observes the newest state.
func deliver[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Latch is a one-shot boolean that starts unset and settles exactly once.
// It models "startup work has completed" signals that consumers must wait
// on before reading dependent state.
type Latch struct {
	once sync.Once
	done chan struct{}
}

// NewLatch returns an unsettled latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Settle marks the latch as done. Only the first call has any effect.
func (l *Latch) Settle() {
	l.once.Do(func() { close(l.done) })
}

// IsSet reports whether the latch has settled.
func (l *Latch) IsSet() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the latch settles.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the latch settles or the context is cancelled.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
