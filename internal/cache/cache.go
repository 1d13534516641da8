// Package cache is a small TTL cache used by the client for remote data that
// is expensive to refetch (quota limits, session options). Loader failures
// are never cached; a stale value is served while the loader keeps failing.
package cache

import (
	"sync"
	"time"
)

type Cache[T any] struct {
	ttl    time.Duration
	loader func(key string) (T, error)

	mx sync.Mutex
	m  map[string]*entry[T]
}

type entry[T any] struct {
	value T
	ts    time.Time
	valid bool
}

func NewWithTTL[T any](ttl time.Duration, loader func(key string) (T, error)) *Cache[T] {
	return &Cache[T]{
		ttl:    ttl,
		loader: loader,
		m:      make(map[string]*entry[T]),
	}
}

// Load returns the cached value for key, refreshing it through the loader
// when it is older than the ttl. A failed refresh keeps the previous value.
func (c *Cache[T]) Load(key string) (T, error) {
	c.mx.Lock()
	defer c.mx.Unlock()

	e, ok := c.m[key]

	if !ok {
		e = &entry[T]{}
		c.m[key] = e
	}

	if e.valid && time.Since(e.ts) <= c.ttl {
		return e.value, nil
	}

	v, err := c.loader(key)

	if err != nil {
		if e.valid {
			return e.value, nil
		}

		var zero T

		return zero, err
	}

	e.value = v
	e.ts = time.Now()
	e.valid = true

	return v, nil
}

// Invalidate drops one key so the next Load refetches.
func (c *Cache[T]) Invalidate(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()

	delete(c.m, key)
}

// Clean drops entries untouched for ten ttls.
func (c *Cache[T]) Clean() {
	c.mx.Lock()
	defer c.mx.Unlock()

	for k, e := range c.m {
		if time.Since(e.ts) > c.ttl*10 {
			delete(c.m, k)
		}
	}
}
