package broadcast

import (
	"sync"
)

// subscription pairs a subscriber handle with its callback.
type subscription[T any] struct {
	handle Handle
	fn     func(T)
}

// Broadcaster delivers payloads of type T to registered subscriber
// callbacks. It is safe for concurrent use.
type Broadcaster[T any] struct {
	mu sync.RWMutex

	// subs holds subscriptions in registration order.
	subs []subscription[T]

	// onPanic receives values recovered from panicking callbacks.
	onPanic func(h Handle, recovered any)
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// OnUpdate registers fn to receive future broadcasts under handle h.
// Registrations are not deduplicated: registering the same handle twice
// delivers each broadcast twice. h must come from NewHandle.
func (b *Broadcaster[T]) OnUpdate(h Handle, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription[T]{handle: h, fn: fn})
}

// OffUpdate removes every subscription registered under h and returns
// the number removed. Removing an unknown handle is a no-op.
func (b *Broadcaster[T]) OffUpdate(h Handle) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	kept := b.subs[:0]
	for _, s := range b.subs {
		if s.handle == h {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	// Release callback references in the trimmed tail.
	for i := len(kept); i < len(b.subs); i++ {
		b.subs[i] = subscription[T]{}
	}
	b.subs = kept
	return removed
}

// Trigger delivers payload to every subscriber except origin, in
// registration order, and returns the number of callbacks invoked.
// A callback that panics counts as invoked; the panic is recovered and
// reported to the OnPanic hook so the remaining subscribers still
// receive the payload.
//
// The subscriber set is snapshotted when Trigger starts: subscriptions
// added or removed by a callback take effect for later broadcasts only.
func (b *Broadcaster[T]) Trigger(payload T, origin Handle) int {
	b.mu.RLock()
	subs := make([]subscription[T], len(b.subs))
	copy(subs, b.subs)
	onPanic := b.onPanic
	b.mu.RUnlock()

	delivered := 0
	for _, s := range subs {
		if s.handle == origin {
			continue
		}
		invoke(s, payload, onPanic)
		delivered++
	}
	return delivered
}

// invoke runs one callback, recovering a panic so a failing subscriber
// cannot block delivery to the rest.
func invoke[T any](s subscription[T], payload T, onPanic func(Handle, any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(s.handle, r)
		}
	}()
	s.fn(payload)
}

// OnPanic sets fn to receive values recovered from panicking subscriber
// callbacks. Passing nil restores the default of discarding them.
func (b *Broadcaster[T]) OnPanic(fn func(h Handle, recovered any)) {
	b.mu.Lock()
	b.onPanic = fn
	b.mu.Unlock()
}

// Count returns the current number of subscriptions.
func (b *Broadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Handles returns the handles of all current subscriptions in
// registration order. A handle registered twice appears twice.
func (b *Broadcaster[T]) Handles() []Handle {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handles := make([]Handle, len(b.subs))
	for i, s := range b.subs {
		handles[i] = s.handle
	}
	return handles
}
