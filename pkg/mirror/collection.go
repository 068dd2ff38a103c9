package mirror

import (
	"sync"

	"github.com/noahgrant/resourcerer-go/pkg/cache"
)

// Collection manages the models of one record class in attach order.
// Records come from a shared cache, so two collections attaching the
// same (class, id) mirror the same canonical record.
type Collection[V any] struct {
	mu sync.RWMutex

	class  string
	cache  *cache.Cache[V]
	ids    []string
	models map[string]*Model[V]
}

// NewCollection creates an empty collection over class, backed by c.
func NewCollection[V any](class string, c *cache.Cache[V]) *Collection[V] {
	return &Collection[V]{
		class:  class,
		cache:  c,
		models: make(map[string]*Model[V]),
	}
}

// Attach returns the model for id, creating and attaching one if the
// collection does not hold it yet.
func (c *Collection[V]) Attach(id string) *Model[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, exists := c.models[id]; exists {
		return m
	}

	rec := c.cache.GetOrCreate(cache.Key{Class: c.class, ID: id})
	m := NewModel(rec)
	c.models[id] = m
	c.ids = append(c.ids, id)
	return m
}

// Detach removes the model for id and unsubscribes it.
// Returns whether the collection held it.
func (c *Collection[V]) Detach(id string) bool {
	c.mu.Lock()
	m, exists := c.models[id]
	if !exists {
		c.mu.Unlock()
		return false
	}
	delete(c.models, id)
	for i, existing := range c.ids {
		if existing == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	// Unsubscribe outside the lock; the record's empty signal may reach
	// back into the cache.
	m.Detach()
	return true
}

// DetachAll detaches every model and empties the collection.
func (c *Collection[V]) DetachAll() {
	c.mu.Lock()
	models := make([]*Model[V], 0, len(c.ids))
	for _, id := range c.ids {
		models = append(models, c.models[id])
	}
	c.models = make(map[string]*Model[V])
	c.ids = nil
	c.mu.Unlock()

	for _, m := range models {
		m.Detach()
	}
}

// Model returns the attached model for id.
func (c *Collection[V]) Model(id string) (*Model[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, exists := c.models[id]
	return m, exists
}

// Models returns all attached models in attach order.
func (c *Collection[V]) Models() []*Model[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models := make([]*Model[V], 0, len(c.ids))
	for _, id := range c.ids {
		models = append(models, c.models[id])
	}
	return models
}

// IDs returns the attached IDs in attach order.
func (c *Collection[V]) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, len(c.ids))
	copy(ids, c.ids)
	return ids
}

// Len returns the number of attached models.
func (c *Collection[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Class returns the record class this collection manages.
func (c *Collection[V]) Class() string {
	return c.class
}
