// This package implements the geolocation resolution engine of the
// whereami service.
//
// The engine takes a candidate IP address and asks a set of upstream
// geolocation providers about it. Providers are unreliable by nature:
// they rate limit, they time out, they return garbage. So the engine
// races all primary providers at once, takes the first one that
// actually succeeds and falls back to a reserved provider only when
// every primary has failed.
//
// Results are kept in a capacity-bounded LRU cache with per-entry TTL,
// and concurrent lookups for the same address are collapsed into a
// single upstream resolution.
//
// Engine is the main entity. It accepts an address string and returns
// a Record: a normalized view over whatever schema the winning
// provider speaks.
package geolib
