// Package broadcast provides the subscription primitive that canonical
// records are built on.
//
// A Broadcaster holds an ordered list of (handle, callback) subscriptions
// and delivers payloads to all of them except a designated originator.
// It knows nothing about attributes or records; it is a generic fan-out
// with identity-based exclusion.
//
// # Handles
//
// Subscribers identify themselves with a Handle minted by NewHandle.
// Handles are opaque, comparable, process-unique, and never recycled.
// The zero Handle is the system origin: passing it to Trigger excludes
// nobody, so every subscriber receives the payload.
//
// # Delivery
//
// Trigger snapshots the subscriber list before invoking any callback, so
// a callback that subscribes or unsubscribes does not change the current
// delivery round. Callbacks run in registration order on the caller's
// goroutine. A panicking callback is recovered and reported through the
// OnPanic hook; delivery continues with the next subscriber.
package broadcast
