package clientcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a type-safe cache for expensive-to-build clients (SDK clients,
// connection pools). Construction is deduplicated with singleflight so a
// burst of concurrent requests builds each client exactly once.
type Cache[T any] struct {
	mu      sync.RWMutex
	clients map[string]T
	group   singleflight.Group
}

// New creates an empty client cache
func New[T any]() *Cache[T] {
	return &Cache[T]{clients: make(map[string]T)}
}

// GetOrCreate returns the cached client for key, building it with factory on
// first use. The factory runs at most once per key under concurrent load.
func (c *Cache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	c.mu.RLock()
	client, ok := c.clients[key]
	c.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have built it while
		// we were waiting to enter.
		c.mu.RLock()
		client, ok := c.clients[key]
		c.mu.RUnlock()
		if ok {
			return client, nil
		}

		built, err := factory()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.clients[key] = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Delete removes a client from the cache
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.clients, key)
	c.mu.Unlock()
}

// Len returns the number of cached clients
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}
