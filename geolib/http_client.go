package geolib

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type httpClient struct {
	userAgent      string
	timeout        time.Duration
	client         *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *circuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	if h.timeout > 0 {
		ctx, _ := context.WithTimeout(req.Context(), h.timeout) // nolint: govet
		req = req.WithContext(ctx)
	}

	ctx := req.Context()

	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.circuitBreaker.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCircuitBreakerIgnore, err)
		}

		resp, err := h.client.Do(req.WithContext(ctx))
		if err != nil {
			if resp != nil {
				io.Copy(ioutil.Discard, resp.Body) // nolint: errcheck
				resp.Body.Close()
			}

			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			io.Copy(ioutil.Discard, resp.Body) // nolint: errcheck
			resp.Body.Close()

			return nil, fmt.Errorf("netloc has responded with %s", resp.Status)
		}

		return resp, nil
	})

	if resp == nil {
		return nil, err
	}

	return resp, err
}

// NewHTTPClient prepares an HTTP client for a single provider: sets
// the service user agent, bounds every call with a timeout, wraps it
// with a rate limiter and a circuit breaker.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a
// meaning of rate limiter parameters.
//
// A meaning of circuit breaker parameters:
//
// circuitBreakerOpenThreshold - a threshold of failures when circuit
// breaker becomes OPEN and blocks access to a target.
//
// circuitBreakerResetFailuresTimeout - while circuit breaker is
// closed, a failure counter is reset after this time period.
//
// circuitBreakerHalfOpenTimeout - when circuit breaker is opened, it
// goes into HALF_OPEN state after this time period. Within this state
// we allow 1 attempt. If this attempt fails, it goes into OPEN state
// again. If succeed - goes to CLOSED.
func NewHTTPClient(client *http.Client,
	userAgent string,
	timeout time.Duration,
	rateLimiterInterval time.Duration,
	rateLimitBurst int,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerHalfOpenTimeout, circuitBreakerResetFailuresTimeout time.Duration) HTTPClient {
	return httpClient{
		userAgent:   userAgent,
		timeout:     timeout,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimiterInterval), rateLimitBurst),
		circuitBreaker: newCircuitBreaker(circuitBreakerOpenThreshold,
			circuitBreakerHalfOpenTimeout,
			circuitBreakerResetFailuresTimeout),
	}
}
