package geolib

import (
	"context"
	"net"
	"time"

	"github.com/dgraph-io/ristretto"
)

// cachingProvider memoizes lookups of a single provider. This is
// different from the engine result cache: the engine caches the final
// winner of a race, this one remembers what a particular upstream said.
// It is mostly useful for metered providers where every call costs
// quota.
type cachingProvider struct {
	Provider

	cache *ristretto.Cache
	ttl   time.Duration
}

func (c cachingProvider) Lookup(ctx context.Context, ip net.IP) (ProviderResult, error) {
	cacheKey := ip.String()

	value, ok := c.cache.Get(cacheKey)
	if ok {
		return value.(ProviderResult), nil
	}

	result, err := c.Provider.Lookup(ctx, ip)
	if err != nil {
		return ProviderResult{}, err
	}

	c.cache.SetWithTTL(cacheKey, result, 1, c.ttl)

	return result, nil
}

func NewCachingProvider(provider Provider, itemsCount uint, ttl time.Duration) Provider {
	cacheConfig := &ristretto.Config{
		MaxCost:     int64(itemsCount),
		NumCounters: 10 * int64(itemsCount),
		Metrics:     false,
		BufferItems: 64,
	}

	cache, err := ristretto.NewCache(cacheConfig)
	if err != nil {
		panic(err)
	}

	return cachingProvider{
		Provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}
