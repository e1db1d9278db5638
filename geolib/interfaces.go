package geolib

import (
	"context"
	"net"
	"net/http"
)

// Provider is a single upstream geolocation source. Lookup has to
// return an error if the upstream could not affirmatively geolocate
// the address: a response without a country code is a failure, not a
// low-confidence success.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ip net.IP) (ProviderResult, error)
}

// HTTPClient is what providers use to talk to their upstreams. The
// implementation returned by NewHTTPClient bounds every call with a
// timeout, a rate limiter and a circuit breaker.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Logger interface {
	LookupError(ip net.IP, name string, err error)
}
