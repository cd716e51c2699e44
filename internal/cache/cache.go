// Package cache provides a TTL memoization layer for expensive pipeline
// stages. Concurrent requests for the same key share one producer call
// instead of racing to compute duplicates.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"standforge/internal/logging"
)

// DefaultTTL is used when a caller passes a non-positive ttl.
const DefaultTTL = 5 * time.Minute

const purgeInterval = 10 * time.Minute

// Store is a TTL key/value cache with single-flight population.
type Store struct {
	items *gocache.Cache
	group singleflight.Group
}

// New returns an empty store. Expired entries are purged in the background
// every ten minutes.
func New() *Store {
	return &Store{
		items: gocache.New(DefaultTTL, purgeInterval),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (s *Store) Get(key string) (any, bool) {
	return s.items.Get(key)
}

// Set stores value under key with the given ttl.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.items.Set(key, value, ttl)
}

// Delete removes key from the store.
func (s *Store) Delete(key string) {
	s.items.Delete(key)
}

// Flush drops every entry.
func (s *Store) Flush() {
	s.items.Flush()
}

// GetOrCompute returns the cached value for key, or runs producer to fill
// it. When several goroutines miss on the same key at once, producer runs
// once and the result is shared; a producer error is returned to every
// waiter and nothing is cached.
func (s *Store) GetOrCompute(key string, ttl time.Duration, producer func() (any, error)) (any, error) {
	if v, ok := s.items.Get(key); ok {
		return v, nil
	}

	log := logging.Get(logging.CategoryCache)

	v, err, shared := s.group.Do(key, func() (any, error) {
		// Re-check under the flight: another goroutine may have finished
		// and populated the entry between our miss and the Do call.
		if v, ok := s.items.Get(key); ok {
			return v, nil
		}
		v, err := producer()
		if err != nil {
			return nil, err
		}
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		s.items.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		log.Debugw("cache producer failed", "key", key, "err", err)
		return nil, err
	}
	if shared {
		log.Debugw("cache flight shared", "key", key)
	}
	return v, nil
}

// ItemCount reports the number of entries, expired ones included until the
// next purge.
func (s *Store) ItemCount() int {
	return s.items.ItemCount()
}
