package geolib

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry is never mutated in place: a re-resolution replaces the
// whole entry.
type cacheEntry struct {
	record    Record
	expiresAt time.Time
}

// resultCache is a capacity-bounded LRU keyed by the validated address
// string. Expiration is lazy: an expired entry is dropped by the Get
// which discovers it, there is no background sweep.
type resultCache struct {
	mutex sync.Mutex
	lru   *lru.Cache[string, cacheEntry]
	ttl   time.Duration
}

func (r *resultCache) Get(key string) (Record, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.lru.Get(key)
	if !ok {
		return Record{}, false
	}

	if !time.Now().Before(entry.expiresAt) {
		r.lru.Remove(key)

		return Record{}, false
	}

	return entry.record, true
}

func (r *resultCache) Put(key string, record Record) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.lru.Add(key, cacheEntry{
		record:    record,
		expiresAt: time.Now().Add(r.ttl),
	})
}

func (r *resultCache) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.lru.Len()
}

func newResultCache(capacity int, ttl time.Duration) (*resultCache, error) {
	cache, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		return nil, err
	}

	return &resultCache{
		lru: cache,
		ttl: ttl,
	}, nil
}
