package registry

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/noahgrant/resourcerer-go/pkg/broadcast"
	"github.com/noahgrant/resourcerer-go/pkg/cache"
	"github.com/noahgrant/resourcerer-go/pkg/journal"
	"github.com/noahgrant/resourcerer-go/pkg/record"
)

// Registry errors.
var (
	ErrClassExists   = errors.New("class already registered")
	ErrClassNotFound = errors.New("class not registered")
	ErrInvalidClass  = errors.New("invalid class name")
)

// Registry holds the validated class table and the process-wide wiring
// for caches built from it: grace period, journal logger, and lifecycle
// tracker. It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// classes holds the registered class declarations by name.
	classes map[string]ClassSpec

	grace   time.Duration
	journal journal.Logger
	tracker Tracker

	// closer releases the file journal, when the registry opened one.
	closer io.Closer
}

// NewRegistry creates a registry from config, opening the journal
// outputs the config names. Close releases them.
func NewRegistry(config *Config) (*Registry, error) {
	logger, closer, err := newJournalLogger(config.Journal)
	if err != nil {
		return nil, err
	}

	r := NewRegistryWithJournal(config, logger)
	r.closer = closer
	return r, nil
}

// NewRegistryWithJournal creates a registry from config with a
// caller-owned journal logger. Nil disables journaling.
func NewRegistryWithJournal(config *Config, logger journal.Logger) *Registry {
	if logger == nil {
		logger = journal.NoopLogger{}
	}

	r := &Registry{
		classes: make(map[string]ClassSpec),
		grace:   config.EvictionGrace(),
		journal: logger,
		tracker: NoopTracker{},
	}
	for name, spec := range config.Classes {
		if name == "" {
			continue
		}
		r.classes[name] = spec
	}
	return r
}

// newJournalLogger builds the journal logger described by config and
// returns the closer for any file it opened.
func newJournalLogger(config JournalConfig) (journal.Logger, io.Closer, error) {
	var loggers []journal.Logger
	var closer io.Closer

	if config.Path != "" {
		file, err := journal.NewFileLogger(config.Path)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, file)
		closer = file
	}
	if config.Stdout {
		loggers = append(loggers, journal.NewSlogAdapter(slog.Default()))
	}

	switch len(loggers) {
	case 0:
		return journal.NoopLogger{}, nil, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return journal.NewMultiLogger(loggers...), closer, nil
	}
}

// RegisterClass adds a class declaration.
// Returns ErrInvalidClass for an empty name and ErrClassExists if the
// class is already registered.
func (r *Registry) RegisterClass(name string, spec ClassSpec) error {
	if name == "" {
		return ErrInvalidClass
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.classes[name]; exists {
		return ErrClassExists
	}
	r.classes[name] = spec
	return nil
}

// Class returns the declaration for name.
// Returns ErrClassNotFound if the class is not registered.
func (r *Registry) Class(name string) (ClassSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.classes[name]
	if !exists {
		return ClassSpec{}, ErrClassNotFound
	}
	return spec, nil
}

// HasClass returns true if name is registered.
func (r *Registry) HasClass(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.classes[name]
	return exists
}

// Classes returns all registered class names in sorted order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetTracker sets the lifecycle tracker. Caches built from this
// registry read it per event, so already-built caches pick up the
// change. Nil restores the no-op tracker.
func (r *Registry) SetTracker(t Tracker) {
	if t == nil {
		t = NoopTracker{}
	}
	r.mu.Lock()
	r.tracker = t
	r.mu.Unlock()
}

// Journal returns the registry's journal logger.
func (r *Registry) Journal() journal.Logger {
	return r.journal
}

// GracePeriod returns the eviction grace period for caches built from
// this registry.
func (r *Registry) GracePeriod() time.Duration {
	return r.grace
}

// NewCache builds a record cache wired with the registry's grace
// period, journal, and lifecycle tracking. Records of a registered
// class start with the class defaults applied.
func (r *Registry) NewCache() *cache.Cache[any] {
	c := cache.NewCacheWithConfig[any](cache.Config{
		GracePeriod: r.grace,
		Journal:     r.journal,
	})

	c.OnCreate(func(key cache.Key, rec *record.Record[any]) {
		if defaults := r.classDefaults(key.Class); len(defaults) > 0 {
			rec.Set(record.Attrs[any](defaults), broadcast.Handle{})
		}
		r.currentTracker().RecordCreated(key.Class, key.ID)
	})
	c.OnEvict(func(key cache.Key, _ *record.Record[any]) {
		r.currentTracker().RecordEvicted(key.Class, key.ID)
	})

	return c
}

// Close releases the journal outputs the registry opened.
func (r *Registry) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// classDefaults returns the default attributes for class, or nil when
// the class is unregistered or has none.
func (r *Registry) classDefaults(class string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, exists := r.classes[class]
	if !exists {
		return nil
	}
	return spec.Defaults
}

// currentTracker returns the tracker under the lock.
func (r *Registry) currentTracker() Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tracker
}
