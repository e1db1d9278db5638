package geolib

import "errors"

var (
	ErrEngineShutdown        = errors.New("engine instance was shutdown")
	ErrAddressNotUsable      = errors.New("address is private or not usable for lookup")
	ErrAllProvidersExhausted = errors.New("all geolocation providers have failed")
	ErrCircuitBreakerOpened  = errors.New("circuit breaker is opened")
	ErrCircuitBreakerIgnore  = errors.New("circuit breaker should ignore this error")
	ErrContextIsClosed       = errors.New("context is closed")
)
