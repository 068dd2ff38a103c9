package journal

import (
	"time"
)

// Event represents a record synchronization event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RecordID uniquely identifies the record instance (UUID).
	RecordID string `cbor:"2,keyasint"`

	// Op classifies the event.
	Op Op `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Update       *UpdateEvent       `cbor:"4,keyasint,omitempty"` // Attribute changes
	Subscription *SubscriptionEvent `cbor:"5,keyasint,omitempty"` // Subscriber attach/detach
	Lifecycle    *LifecycleEvent    `cbor:"6,keyasint,omitempty"` // Cache lifecycle transitions
	Error        *ErrorEvent        `cbor:"7,keyasint,omitempty"` // Errors surfaced by the sync layer
}

// Op classifies the event type.
type Op uint8

const (
	// OpCreated indicates a record was created in the cache.
	OpCreated Op = 0
	// OpSubscribe indicates a subscriber attached to a record.
	OpSubscribe Op = 1
	// OpUnsubscribe indicates a subscriber detached from a record.
	OpUnsubscribe Op = 2
	// OpUpdate indicates an attribute update (set or unset).
	OpUpdate Op = 3
	// OpEvictionScheduled indicates a grace-period eviction timer started.
	OpEvictionScheduled Op = 4
	// OpEvictionCanceled indicates a pending eviction was canceled.
	OpEvictionCanceled Op = 5
	// OpEvicted indicates a record was evicted after its grace period.
	OpEvicted Op = 6
	// OpRemoved indicates a record was removed from the cache immediately.
	OpRemoved Op = 7
	// OpError indicates an error event.
	OpError Op = 8
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpCreated:
		return "CREATED"
	case OpSubscribe:
		return "SUBSCRIBE"
	case OpUnsubscribe:
		return "UNSUBSCRIBE"
	case OpUpdate:
		return "UPDATE"
	case OpEvictionScheduled:
		return "EVICTION_SCHEDULED"
	case OpEvictionCanceled:
		return "EVICTION_CANCELED"
	case OpEvicted:
		return "EVICTED"
	case OpRemoved:
		return "REMOVED"
	case OpError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// UpdateEvent captures an attribute update on a record.
type UpdateEvent struct {
	// Origin identifies the subscriber that initiated the update
	// ("system" for updates without an originator).
	Origin string `cbor:"1,keyasint,omitempty"`

	// Keys lists the attribute names the update touched, sorted.
	Keys []string `cbor:"2,keyasint"`

	// Unset is true when the update removed the keys instead of
	// assigning them.
	Unset bool `cbor:"3,keyasint,omitempty"`

	// Subscribers is the subscriber count at broadcast time.
	Subscribers int `cbor:"4,keyasint"`

	// Snapshot is the full attribute state after the update
	// (CBOR-compatible representation).
	Snapshot any `cbor:"5,keyasint,omitempty"`
}

// SubscriptionEvent captures a subscriber attaching to or detaching
// from a record.
type SubscriptionEvent struct {
	// Subscriber identifies the handle attaching or detaching.
	Subscriber string `cbor:"1,keyasint"`

	// Removed is the number of registrations removed (detach only).
	Removed int `cbor:"2,keyasint,omitempty"`

	// Subscribers is the subscriber count after the change.
	Subscribers int `cbor:"3,keyasint"`
}

// LifecycleEvent captures cache lifecycle transitions for a record.
type LifecycleEvent struct {
	// Class is the record class.
	Class string `cbor:"1,keyasint,omitempty"`

	// ID is the record's logical identifier within its class.
	ID string `cbor:"2,keyasint,omitempty"`

	// Subscribers is the subscriber count at the time of the event.
	Subscribers int `cbor:"3,keyasint"`

	// GracePeriod is the eviction delay in effect (scheduled events).
	// Stored as nanoseconds.
	GracePeriod time.Duration `cbor:"4,keyasint,omitempty"`

	// Reason describes why the transition happened.
	Reason string `cbor:"5,keyasint,omitempty"`
}

// ErrorEvent captures errors surfaced by the sync layer.
type ErrorEvent struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`

	// Subscriber identifies the handle involved, when known.
	Subscriber string `cbor:"3,keyasint,omitempty"`
}
