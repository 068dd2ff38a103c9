package record

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/broadcast"
	"github.com/noahgrant/resourcerer-go/pkg/journal"
)

// DefaultMaxCascadeDepth bounds how many broadcasts may be in flight
// for one record before further broadcasts are dropped.
const DefaultMaxCascadeDepth = 64

// Attrs maps attribute names to values.
type Attrs[V any] map[string]V

// UpdateFunc receives the full attribute snapshot after a change, plus
// the record it came from. The snapshot is shared by all subscribers of
// the same broadcast and must be treated as read-only.
type UpdateFunc[V any] func(snapshot Attrs[V], rec *Record[V])

// Config holds record configuration.
type Config struct {
	// MaxCascadeDepth bounds the number of in-flight broadcasts for the
	// record. Subscriber callbacks may update the record again, which
	// starts a nested broadcast; when the bound is exceeded the update
	// still applies but its broadcast is dropped and an error event is
	// journaled.
	MaxCascadeDepth int
}

// DefaultConfig returns the default record configuration.
func DefaultConfig() Config {
	return Config{
		MaxCascadeDepth: DefaultMaxCascadeDepth,
	}
}

// Record holds the canonical attributes of one logical entity and
// keeps every subscriber's copy in sync. It is safe for concurrent use.
//
// A record does not know which cache key it lives under. Lifecycle
// coordination happens through the OnEmpty hook and, for diagnostics,
// through an injected journal scoped by an opaque record instance ID.
type Record[V any] struct {
	mu sync.RWMutex

	// attrs holds the canonical attribute values.
	attrs Attrs[V]

	// updates fans snapshots out to subscribers.
	updates *broadcast.Broadcaster[Attrs[V]]

	// onEmpty is invoked after Unsubscribe removes the last subscriber.
	onEmpty func()

	// inFlight counts broadcasts currently being delivered.
	inFlight int

	// maxDepth is the configured cascade bound.
	maxDepth int

	// Journal correlation (optional).
	journal  journal.Logger
	recordID string
}

// NewRecord creates an empty record with default configuration.
func NewRecord[V any]() *Record[V] {
	return NewRecordWithConfig[V](DefaultConfig())
}

// NewRecordWithConfig creates an empty record with the given configuration.
func NewRecordWithConfig[V any](config Config) *Record[V] {
	if config.MaxCascadeDepth <= 0 {
		config.MaxCascadeDepth = DefaultMaxCascadeDepth
	}

	r := &Record[V]{
		attrs:    make(Attrs[V]),
		updates:  broadcast.NewBroadcaster[Attrs[V]](),
		maxDepth: config.MaxCascadeDepth,
	}

	// Subscriber panics are isolated by the broadcaster; surface them
	// in the journal.
	r.updates.OnPanic(func(h broadcast.Handle, recovered any) {
		r.logError(fmt.Sprintf("subscriber callback panicked: %v", recovered), "broadcast", h)
	})

	return r
}

// Get returns the current value of the named attribute.
func (r *Record[V]) Get(name string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.attrs[name]
	return value, ok
}

// Set applies a batch of attribute assignments. Every key is applied,
// but a broadcast goes out only when at least one value is new or
// structurally different from the current one. All subscribers except
// origin then receive one full snapshot. Returns whether the record
// changed.
func (r *Record[V]) Set(changes Attrs[V], origin broadcast.Handle) bool {
	if len(changes) == 0 {
		return false
	}

	r.mu.Lock()
	changed := false
	for name, value := range changes {
		current, exists := r.attrs[name]
		if !exists || !valuesEqual(current, value) {
			changed = true
		}
		// Every key applies, changed or not.
		r.attrs[name] = value
	}
	if !changed {
		r.mu.Unlock()
		return false
	}

	snapshot := r.snapshotLocked()
	depth := r.beginBroadcastLocked()
	r.mu.Unlock()

	r.publish(snapshot, origin, sortedKeys(changes), false, depth, "set")
	return true
}

// Unset removes the named attributes. Removing at least one present
// key triggers exactly one snapshot broadcast to all subscribers
// except origin; unsetting only absent keys is silent. Returns whether
// the record changed.
func (r *Record[V]) Unset(keys []string, origin broadcast.Handle) bool {
	if len(keys) == 0 {
		return false
	}

	r.mu.Lock()
	var removed []string
	for _, name := range keys {
		if _, exists := r.attrs[name]; exists {
			delete(r.attrs, name)
			removed = append(removed, name)
		}
	}
	if len(removed) == 0 {
		r.mu.Unlock()
		return false
	}

	snapshot := r.snapshotLocked()
	depth := r.beginBroadcastLocked()
	r.mu.Unlock()

	sort.Strings(removed)
	r.publish(snapshot, origin, removed, true, depth, "unset")
	return true
}

// Snapshot returns a shallow copy of the attribute map. Mutating the
// returned map does not affect the record.
func (r *Record[V]) Snapshot() Attrs[V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Keys returns the attribute names in sorted order.
func (r *Record[V]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.attrs))
	for name := range r.attrs {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of attributes.
func (r *Record[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attrs)
}

// OnUpdate registers fn under handle h. After every change h did not
// originate, fn receives the full snapshot and the record itself.
// Registrations are not deduplicated.
func (r *Record[V]) OnUpdate(h broadcast.Handle, fn UpdateFunc[V]) {
	r.mu.Lock()
	r.updates.OnUpdate(h, func(snapshot Attrs[V]) {
		fn(snapshot, r)
	})
	count := r.updates.Count()
	r.mu.Unlock()

	r.logSubscription(journal.OpSubscribe, h, 0, count)
}

// Unsubscribe removes every subscription registered under h. Removing
// an unknown handle is a no-op. When the call removes the last
// subscriber, the OnEmpty hook fires once for this transition.
func (r *Record[V]) Unsubscribe(h broadcast.Handle) {
	r.mu.Lock()
	removed := r.updates.OffUpdate(h)
	remaining := r.updates.Count()
	onEmpty := r.onEmpty
	r.mu.Unlock()

	if removed == 0 {
		return
	}

	r.logSubscription(journal.OpUnsubscribe, h, removed, remaining)

	if remaining == 0 && onEmpty != nil {
		onEmpty()
	}
}

// SubscriberCount returns the current number of subscriptions.
func (r *Record[V]) SubscriberCount() int {
	return r.updates.Count()
}

// Handles returns the handles of all current subscriptions in
// registration order.
func (r *Record[V]) Handles() []broadcast.Handle {
	return r.updates.Handles()
}

// OnEmpty sets fn to be invoked each time Unsubscribe removes the last
// subscriber. The cache uses this to schedule eviction.
func (r *Record[V]) OnEmpty(fn func()) {
	r.mu.Lock()
	r.onEmpty = fn
	r.mu.Unlock()
}

// SetJournal sets the journal logger and record instance ID.
// Events logged will include the recordID for correlation.
func (r *Record[V]) SetJournal(logger journal.Logger, recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journal = logger
	r.recordID = recordID
}

// snapshotLocked copies the attribute map. Caller must hold mu.
func (r *Record[V]) snapshotLocked() Attrs[V] {
	snapshot := make(Attrs[V], len(r.attrs))
	for name, value := range r.attrs {
		snapshot[name] = value
	}
	return snapshot
}

// beginBroadcastLocked counts a broadcast in flight and returns the
// resulting depth. Caller must hold mu.
func (r *Record[V]) beginBroadcastLocked() int {
	r.inFlight++
	return r.inFlight
}

// publish journals the update and fans the snapshot out. Runs without
// the lock held so subscriber callbacks can call back into the record.
func (r *Record[V]) publish(snapshot Attrs[V], origin broadcast.Handle, keys []string, unset bool, depth int, context string) {
	defer func() {
		r.mu.Lock()
		r.inFlight--
		r.mu.Unlock()
	}()

	if depth > r.maxDepth {
		r.logError(fmt.Sprintf("cascade depth %d exceeds limit %d, broadcast dropped", depth, r.maxDepth), context, origin)
		return
	}

	r.logUpdate(origin, keys, unset, snapshot)
	r.updates.Trigger(snapshot, origin)
}

// journalSink returns the configured journal and record ID.
func (r *Record[V]) journalSink() (journal.Logger, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.journal, r.recordID
}

// logUpdate logs an applied update.
func (r *Record[V]) logUpdate(origin broadcast.Handle, keys []string, unset bool, snapshot Attrs[V]) {
	sink, recordID := r.journalSink()
	if sink == nil {
		return
	}

	sink.Log(journal.Event{
		Timestamp: time.Now(),
		RecordID:  recordID,
		Op:        journal.OpUpdate,
		Update: &journal.UpdateEvent{
			Origin:      origin.String(),
			Keys:        keys,
			Unset:       unset,
			Subscribers: r.updates.Count(),
			Snapshot:    snapshot,
		},
	})
}

// logSubscription logs a subscriber attach or detach.
func (r *Record[V]) logSubscription(op journal.Op, h broadcast.Handle, removed, count int) {
	sink, recordID := r.journalSink()
	if sink == nil {
		return
	}

	sink.Log(journal.Event{
		Timestamp: time.Now(),
		RecordID:  recordID,
		Op:        op,
		Subscription: &journal.SubscriptionEvent{
			Subscriber:  h.String(),
			Removed:     removed,
			Subscribers: count,
		},
	})
}

// logError logs an error surfaced by the record.
func (r *Record[V]) logError(message, context string, h broadcast.Handle) {
	sink, recordID := r.journalSink()
	if sink == nil {
		return
	}

	sink.Log(journal.Event{
		Timestamp: time.Now(),
		RecordID:  recordID,
		Op:        journal.OpError,
		Error: &journal.ErrorEvent{
			Message:    message,
			Context:    context,
			Subscriber: h.String(),
		},
	})
}

// sortedKeys returns the map's keys in sorted order.
func sortedKeys[V any](m Attrs[V]) []string {
	keys := make([]string, 0, len(m))
	for name := range m {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}
