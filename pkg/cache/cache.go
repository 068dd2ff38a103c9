package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/noahgrant/resourcerer-go/pkg/journal"
	"github.com/noahgrant/resourcerer-go/pkg/record"
)

// DefaultGracePeriod is how long a record with no subscribers stays
// cached before it is evicted.
const DefaultGracePeriod = 2 * time.Minute

// Key identifies a record by class and logical ID.
type Key struct {
	// Class is the record class (e.g. "user", "todo").
	Class string

	// ID is the logical identifier within the class.
	ID string
}

// String returns the key as "class/id".
func (k Key) String() string {
	return k.Class + "/" + k.ID
}

// EvictFunc is notified after a record leaves the cache, whether
// evicted after its grace period or removed explicitly.
type EvictFunc[V any] func(key Key, rec *record.Record[V])

// CreateFunc is notified after the cache creates a record.
type CreateFunc[V any] func(key Key, rec *record.Record[V])

// Config holds cache configuration.
type Config struct {
	// GracePeriod is how long a record with no subscribers stays
	// cached before eviction. Zero means DefaultGracePeriod.
	GracePeriod time.Duration

	// Record configures the records this cache creates.
	Record record.Config

	// Clock drives eviction timers. Nil means the real clock.
	Clock clockwork.Clock

	// Journal receives lifecycle and record events. Nil disables it.
	Journal journal.Logger
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod: DefaultGracePeriod,
		Record:      record.DefaultConfig(),
	}
}

// entry tracks a live record and its pending eviction timer.
type entry[V any] struct {
	rec      *record.Record[V]
	recordID string
	eviction clockwork.Timer
}

// Cache owns at most one live record per key. Records whose last
// subscriber detaches are evicted after a grace period; requesting a
// record during its grace period cancels the pending eviction.
// It is safe for concurrent use.
type Cache[V any] struct {
	mu sync.RWMutex

	// entries holds the live records by key.
	entries map[Key]*entry[V]

	grace   time.Duration
	recCfg  record.Config
	clock   clockwork.Clock
	journal journal.Logger

	// onCreate is called after the cache creates a record.
	onCreate CreateFunc[V]

	// onEvict is called after a record leaves the cache.
	onEvict EvictFunc[V]
}

// NewCache creates a cache with default configuration.
func NewCache[V any]() *Cache[V] {
	return NewCacheWithConfig[V](DefaultConfig())
}

// NewCacheWithConfig creates a cache with the given configuration.
func NewCacheWithConfig[V any](config Config) *Cache[V] {
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Journal == nil {
		config.Journal = journal.NoopLogger{}
	}

	return &Cache[V]{
		entries: make(map[Key]*entry[V]),
		grace:   config.GracePeriod,
		recCfg:  config.Record,
		clock:   config.Clock,
		journal: config.Journal,
	}
}

// GetOrCreate returns the record for key, creating it if absent.
// Requesting an existing record cancels any eviction pending for it,
// so late resubscription keeps the record alive.
func (c *Cache[V]) GetOrCreate(key Key) *record.Record[V] {
	c.mu.Lock()

	if e, exists := c.entries[key]; exists {
		canceled := false
		if e.eviction != nil {
			e.eviction.Stop()
			e.eviction = nil
			canceled = true
		}
		count := e.rec.SubscriberCount()
		c.mu.Unlock()

		if canceled {
			c.logLifecycle(e.recordID, journal.OpEvictionCanceled, key, count, 0, "record requested again")
		}
		return e.rec
	}

	rec := record.NewRecordWithConfig[V](c.recCfg)
	recordID := uuid.New().String()
	rec.SetJournal(c.journal, recordID)
	rec.OnEmpty(func() {
		c.scheduleEviction(key)
	})

	c.entries[key] = &entry[V]{rec: rec, recordID: recordID}
	onCreate := c.onCreate
	c.mu.Unlock()

	c.logLifecycle(recordID, journal.OpCreated, key, 0, 0, "")

	// Call callback outside lock
	if onCreate != nil {
		onCreate(key, rec)
	}
	return rec
}

// Get returns the record for key without creating it or touching its
// eviction timer.
func (c *Cache[V]) Get(key Key) (*record.Record[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	return e.rec, true
}

// Remove evicts key immediately, canceling any pending timer.
// Returns whether a record was removed.
func (c *Cache[V]) Remove(key Key) bool {
	c.mu.Lock()

	e, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		return false
	}

	if e.eviction != nil {
		e.eviction.Stop()
		e.eviction = nil
	}
	delete(c.entries, key)
	onEvict := c.onEvict
	count := e.rec.SubscriberCount()
	c.mu.Unlock()

	c.logLifecycle(e.recordID, journal.OpRemoved, key, count, 0, "removed explicitly")

	if onEvict != nil {
		onEvict(key, e.rec)
	}
	return true
}

// Contains reports whether key is cached.
func (c *Cache[V]) Contains(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.entries[key]
	return exists
}

// EvictionPending reports whether key has an eviction timer running.
func (c *Cache[V]) EvictionPending(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	return exists && e.eviction != nil
}

// Len returns the number of cached records.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys in unspecified order.
func (c *Cache[V]) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Clear cancels all pending evictions and drops every record.
// Dropped records are journaled; the OnEvict callback is not called.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[Key]*entry[V])
	c.mu.Unlock()

	for key, e := range entries {
		if e.eviction != nil {
			e.eviction.Stop()
		}
		c.logLifecycle(e.recordID, journal.OpRemoved, key, e.rec.SubscriberCount(), 0, "cache cleared")
	}
}

// OnCreate sets the callback invoked after the cache creates a record.
func (c *Cache[V]) OnCreate(fn CreateFunc[V]) {
	c.mu.Lock()
	c.onCreate = fn
	c.mu.Unlock()
}

// OnEvict sets the callback invoked after a record leaves the cache.
func (c *Cache[V]) OnEvict(fn EvictFunc[V]) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// GracePeriod returns the configured eviction delay.
func (c *Cache[V]) GracePeriod() time.Duration {
	return c.grace
}

// scheduleEviction starts the grace-period timer for key. Called by
// the record's OnEmpty hook when its last subscriber detaches.
func (c *Cache[V]) scheduleEviction(key Key) {
	c.mu.Lock()

	e, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		return
	}

	// Restart the timer if one is already pending.
	if e.eviction != nil {
		e.eviction.Stop()
	}
	e.eviction = c.clock.AfterFunc(c.grace, func() {
		c.finalizeEviction(key)
	})

	recordID := e.recordID
	c.mu.Unlock()

	c.logLifecycle(recordID, journal.OpEvictionScheduled, key, 0, c.grace, "last subscriber detached")
}

// finalizeEviction evicts key if its record is still unsubscribed when
// the grace period ends.
func (c *Cache[V]) finalizeEviction(key Key) {
	c.mu.Lock()

	e, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		return
	}

	// A subscriber may have attached without going through GetOrCreate
	// while the timer was firing.
	if count := e.rec.SubscriberCount(); count > 0 {
		e.eviction = nil
		c.mu.Unlock()
		c.logLifecycle(e.recordID, journal.OpEvictionCanceled, key, count, 0, "subscriber attached during grace period")
		return
	}

	delete(c.entries, key)
	onEvict := c.onEvict
	c.mu.Unlock()

	c.logLifecycle(e.recordID, journal.OpEvicted, key, 0, 0, "grace period elapsed")

	// Call callback outside lock
	if onEvict != nil {
		onEvict(key, e.rec)
	}
}

// logLifecycle journals a cache lifecycle transition for a record.
// Timestamps use wall time; the injected clock only drives timers.
func (c *Cache[V]) logLifecycle(recordID string, op journal.Op, key Key, subscribers int, grace time.Duration, reason string) {
	c.journal.Log(journal.Event{
		Timestamp: time.Now(),
		RecordID:  recordID,
		Op:        op,
		Lifecycle: &journal.LifecycleEvent{
			Class:       key.Class,
			ID:          key.ID,
			Subscribers: subscribers,
			GracePeriod: grace,
			Reason:      reason,
		},
	})
}
