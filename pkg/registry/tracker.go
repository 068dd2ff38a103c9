package registry

// Tracker observes record lifecycle transitions driven by a cache
// built from the registry.
type Tracker interface {
	// RecordCreated is called after a cache creates a record.
	RecordCreated(class, id string)

	// RecordEvicted is called after a record leaves a cache, whether
	// evicted after its grace period or removed explicitly.
	RecordEvicted(class, id string)
}

// NoopTracker ignores all lifecycle notifications.
type NoopTracker struct{}

// RecordCreated implements Tracker.
func (NoopTracker) RecordCreated(class, id string) {}

// RecordEvicted implements Tracker.
func (NoopTracker) RecordEvicted(class, id string) {}

// Compile-time interface satisfaction check.
var _ Tracker = NoopTracker{}
