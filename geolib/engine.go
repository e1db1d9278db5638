package geolib

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pariz/gountries"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize      = 1000
	DefaultCacheTTL       = 10 * time.Minute
	DefaultWorkerPoolSize = 4096
	DefaultCountryCode    = "US"

	workerPoolExpireTime = time.Minute

	// prepended to Source on cache hits so that consumers can tell
	// reuse from a fresh lookup without a different schema.
	cachedSourcePrefix = "cache:"
)

type Config struct {
	CacheSize      int
	CacheTTL       time.Duration
	WorkerPoolSize int
	DefaultCountry string
}

// Engine owns the whole resolution pipeline: validate, consult the
// result cache, collapse concurrent lookups for the same address into
// one flight, race the primary providers, fall back, cache the winner.
//
// The cache and the inflight map are per-instance state; every engine
// instance resolves independently.
type Engine struct {
	logger         Logger
	primaries      []Provider
	fallback       Provider
	cache          *resultCache
	flights        singleflight.Group
	stats          map[string]*UsageStats
	countries      *gountries.Query
	defaultCountry string
	rwmutex        sync.RWMutex
	closeOnce      sync.Once
	workerPool     *ants.PoolWithFunc
	closed         bool
}

// Resolve returns a normalized record for the given address.
//
// It fails with ErrAddressNotUsable for private/loopback/malformed
// addresses (no network call is made) and ErrAllProvidersExhausted
// when every primary and the fallback failed. The engine never
// fabricates degraded data itself: callers which prefer a usable
// record over an error should pass the failure to DegradedRecord.
func (e *Engine) Resolve(ctx context.Context, addr string) (Record, error) {
	e.rwmutex.RLock()
	defer e.rwmutex.RUnlock()

	if e.closed {
		return Record{}, ErrEngineShutdown
	}

	return e.resolve(ctx, addr)
}

func (e *Engine) resolve(ctx context.Context, addr string) (Record, error) {
	if !ValidAddress(addr) {
		return Record{}, ErrAddressNotUsable
	}

	if record, ok := e.cache.Get(addr); ok {
		record.Source = cachedSourcePrefix + record.Source

		return record, nil
	}

	// A completed flight writes the cache before it settles, so a
	// later caller finds either a pending flight or a cache entry,
	// never a gap which would start a redundant resolution.
	value, err, _ := e.flights.Do(addr, func() (interface{}, error) {
		return e.resolveUncached(ctx, addr)
	})
	if err != nil {
		return Record{}, err
	}

	return value.(Record), nil
}

func (e *Engine) resolveUncached(ctx context.Context, addr string) (Record, error) {
	ip := net.ParseIP(addr)

	result, source, err := e.racePrimaries(ctx, ip)
	if err != nil {
		result, source, err = e.askFallback(ctx, ip)
	}

	if err != nil {
		return Record{}, ErrAllProvidersExhausted
	}

	record := e.normalize(addr, source, result)

	e.cache.Put(addr, record)

	return record, nil
}

func (e *Engine) normalize(addr, source string, result ProviderResult) Record {
	record := Record{
		Source:      source,
		IP:          addr,
		CountryCode: strings.ToUpper(result.CountryCode),
		CountryName: result.CountryName,
		City:        result.City,
		Region:      result.Region,
		Timezone:    result.Timezone,
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		Accurate:    true,
	}

	if record.CountryName == "" {
		record.CountryName = e.countryName(record.CountryCode)
	}

	return record
}

func (e *Engine) countryName(code string) string {
	if country, err := e.countries.FindCountryByAlpha(code); err == nil {
		return country.Name.Common
	}

	return code
}

// DegradedRecord builds the accurate=false record callers return when
// resolution itself failed. Geolocation is an enhancement, not a
// blocking dependency, so the record is still usable: it carries the
// configured default country and a description of what went wrong.
func (e *Engine) DegradedRecord(addr string, err error) Record {
	message := "Could not resolve the address"

	switch {
	case errors.Is(err, ErrAddressNotUsable):
		message = "Private or Invalid IP"
	case errors.Is(err, ErrAllProvidersExhausted):
		message = "All geolocation providers are exhausted"
	}

	return Record{
		Source:      "default",
		IP:          addr,
		CountryCode: e.defaultCountry,
		CountryName: e.countryName(e.defaultCountry),
		Accurate:    false,
		Error:       message,
	}
}

type resolveAllRequest struct {
	ctx   context.Context
	addr  string
	index int
	out   chan<- indexedRecord
	wg    *sync.WaitGroup
}

type indexedRecord struct {
	index  int
	record Record
}

// ResolveAll resolves a batch of addresses on the worker pool. The
// returned slice preserves the input order; entries which could not be
// resolved are degraded records, not errors.
func (e *Engine) ResolveAll(ctx context.Context, addrs []string) ([]Record, error) {
	e.rwmutex.RLock()
	defer e.rwmutex.RUnlock()

	if e.closed {
		return nil, ErrEngineShutdown
	}

	out := make(chan indexedRecord, len(addrs))
	wg := &sync.WaitGroup{}

	for i, addr := range addrs {
		select {
		case <-ctx.Done():
			return nil, ErrContextIsClosed
		default:
		}

		wg.Add(1)

		req := &resolveAllRequest{
			ctx:   ctx,
			addr:  addr,
			index: i,
			out:   out,
			wg:    wg,
		}

		if err := e.workerPool.Invoke(req); err != nil {
			wg.Done()

			return nil, fmt.Errorf("cannot schedule a lookup: %w", err)
		}
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	rv := make([]Record, len(addrs))

	for item := range out {
		rv[item.index] = item.record
	}

	return rv, nil
}

func (e *Engine) resolveWorker(args interface{}) {
	req := args.(*resolveAllRequest)
	defer req.wg.Done()

	record, err := e.resolve(req.ctx, req.addr)
	if err != nil {
		record = e.DegradedRecord(req.addr, err)
	}

	select {
	case <-req.ctx.Done():
	case req.out <- indexedRecord{index: req.index, record: record}:
	}
}

// UsageStats returns per-provider counters sorted by provider name.
func (e *Engine) UsageStats() []*UsageStats {
	rv := make([]*UsageStats, 0, len(e.stats))

	for _, v := range e.stats {
		rv = append(rv, v)
	}

	sort.Slice(rv, func(i, j int) bool {
		return rv[i].Name < rv[j].Name
	})

	return rv
}

// CacheLen returns the number of live entries in the result cache.
func (e *Engine) CacheLen() int {
	return e.cache.Len()
}

func (e *Engine) Shutdown() {
	e.rwmutex.Lock()
	defer e.rwmutex.Unlock()

	e.closed = true

	e.closeOnce.Do(func() {
		e.workerPool.Release()
	})
}

func NewEngine(primaries []Provider, fallback Provider, logger Logger, conf Config) (*Engine, error) {
	if len(primaries) == 0 {
		return nil, fmt.Errorf("at least one primary provider is required")
	}

	cacheSize := conf.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	cacheTTL := conf.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	defaultCountry := conf.DefaultCountry
	if defaultCountry == "" {
		defaultCountry = DefaultCountryCode
	}

	cache, err := newResultCache(cacheSize, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("cannot build a result cache: %w", err)
	}

	rv := &Engine{
		logger:         logger,
		primaries:      primaries,
		fallback:       fallback,
		cache:          cache,
		stats:          map[string]*UsageStats{},
		countries:      gountries.New(),
		defaultCountry: strings.ToUpper(defaultCountry),
	}

	for _, v := range primaries {
		rv.stats[v.Name()] = &UsageStats{Name: v.Name()}
	}

	if fallback != nil {
		rv.stats[fallback.Name()] = &UsageStats{Name: fallback.Name()}
	}

	poolSize := conf.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = DefaultWorkerPoolSize
	}

	rv.workerPool, _ = ants.NewPoolWithFunc(poolSize, rv.resolveWorker,
		ants.WithExpiryDuration(workerPoolExpireTime))

	return rv, nil
}
