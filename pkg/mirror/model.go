package mirror

import (
	"sort"
	"sync"

	"github.com/noahgrant/resourcerer-go/pkg/broadcast"
	"github.com/noahgrant/resourcerer-go/pkg/record"
)

// ChangeFunc is invoked after an incoming broadcast replaces the
// model's local copy.
type ChangeFunc[V any] func(snapshot record.Attrs[V])

// Model is one component's live view of a canonical record. It
// subscribes with its own handle, keeps a local copy of the record's
// attributes, and pushes writes to the record with itself as the
// originator. The record excludes the originator from broadcasts, so
// the model applies its own writes locally instead of waiting for an
// echo.
type Model[V any] struct {
	mu sync.RWMutex

	rec    *record.Record[V]
	handle broadcast.Handle

	// attrs is the local copy. Incoming snapshots are stored as-is and
	// treated as read-only; writes build a fresh map.
	attrs record.Attrs[V]

	onChange ChangeFunc[V]
	attached bool
}

// NewModel attaches a model to rec and primes it from the current
// snapshot.
func NewModel[V any](rec *record.Record[V]) *Model[V] {
	m := &Model[V]{
		rec:      rec,
		handle:   broadcast.NewHandle(),
		attached: true,
	}

	rec.OnUpdate(m.handle, func(snapshot record.Attrs[V], _ *record.Record[V]) {
		m.receive(snapshot)
	})
	m.receive(rec.Snapshot())

	return m
}

// receive replaces the local copy and fires the change hook.
func (m *Model[V]) receive(snapshot record.Attrs[V]) {
	m.mu.Lock()
	m.attrs = snapshot
	hook := m.onChange
	m.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
}

// Get returns the local value of the named attribute.
func (m *Model[V]) Get(name string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.attrs[name]
	return value, ok
}

// Snapshot returns a copy of the local attributes. Mutating the
// returned map does not affect the model.
func (m *Model[V]) Snapshot() record.Attrs[V] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make(record.Attrs[V], len(m.attrs))
	for name, value := range m.attrs {
		snapshot[name] = value
	}
	return snapshot
}

// Keys returns the local attribute names in sorted order.
func (m *Model[V]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.attrs))
	for name := range m.attrs {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of local attributes.
func (m *Model[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attrs)
}

// Set applies changes locally and pushes them to the record. Other
// subscribers receive the broadcast; this model does not. A detached
// model drops the write. Returns whether the record changed.
func (m *Model[V]) Set(changes record.Attrs[V]) bool {
	if len(changes) == 0 {
		return false
	}

	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return false
	}

	next := make(record.Attrs[V], len(m.attrs)+len(changes))
	for name, value := range m.attrs {
		next[name] = value
	}
	for name, value := range changes {
		next[name] = value
	}
	m.attrs = next
	rec := m.rec
	m.mu.Unlock()

	return rec.Set(changes, m.handle)
}

// Unset removes the named attributes locally and on the record. A
// detached model drops the write. Returns whether the record changed.
func (m *Model[V]) Unset(names ...string) bool {
	if len(names) == 0 {
		return false
	}

	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return false
	}

	next := make(record.Attrs[V], len(m.attrs))
	for name, value := range m.attrs {
		next[name] = value
	}
	for _, name := range names {
		delete(next, name)
	}
	m.attrs = next
	rec := m.rec
	m.mu.Unlock()

	return rec.Unset(names, m.handle)
}

// OnChange sets fn to run after each incoming broadcast. The model's
// own writes do not fire it.
func (m *Model[V]) OnChange(fn ChangeFunc[V]) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Detach unsubscribes the model from its record. Detaching the last
// subscriber starts the record's eviction clock when the record is
// cache-managed. Detaching twice is a no-op.
func (m *Model[V]) Detach() {
	m.mu.Lock()
	if !m.attached {
		m.mu.Unlock()
		return
	}
	m.attached = false
	rec := m.rec
	m.mu.Unlock()

	rec.Unsubscribe(m.handle)
}

// Attached reports whether the model is still subscribed.
func (m *Model[V]) Attached() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attached
}

// Handle returns the model's subscription handle.
func (m *Model[V]) Handle() broadcast.Handle {
	return m.handle
}

// Record returns the canonical record this model mirrors.
func (m *Model[V]) Record() *record.Record[V] {
	return m.rec
}
