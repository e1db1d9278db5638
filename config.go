package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"time"

	"github.com/hjson/hjson-go/v4"
)

const (
	DefaultUserAgent = "whereami/1.0"

	DefaultHTTPTimeout         = 3 * time.Second
	DefaultFallbackHTTPTimeout = 5 * time.Second
	DefaultRateLimitInterval   = 100 * time.Millisecond
	DefaultRateLimitBurst      = 10

	DefaultCircuitBreakerOpenThreshold        = 5
	DefaultCircuitBreakerHalfOpenTimeout      = 30 * time.Second
	DefaultCircuitBreakerResetFailuresTimeout = time.Minute

	ProviderRolePrimary  = "primary"
	ProviderRoleFallback = "fallback"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}

	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal duration: %w", err)
	}

	vv, ok := v.(string)
	if !ok {
		return fmt.Errorf("incorrect duration: %v", v)
	}

	dur, err := time.ParseDuration(vv)
	if err != nil {
		return fmt.Errorf("cannot parse duration: %w", err)
	}

	d.Duration = dur

	return nil
}

type config struct {
	Listen         string           `json:"listen"`
	UserAgent      string           `json:"user_agent"`
	CacheSize      uint             `json:"cache_size"`
	CacheTTL       duration         `json:"cache_ttl"`
	WorkerPoolSize uint             `json:"worker_pool_size"`
	DefaultCountry string           `json:"default_country"`
	Providers      []configProvider `json:"providers"`
}

func (c config) GetListen() string {
	return c.Listen
}

func (c config) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}

	return DefaultUserAgent
}

func (c config) GetProviders() []configProvider {
	return c.Providers
}

type configProvider struct {
	Name               string            `json:"name"`
	Role               string            `json:"role"`
	HTTPTimeout        duration          `json:"http_timeout"`
	RateLimitInterval  duration          `json:"rate_limit_interval"`
	RateLimitBurst     uint              `json:"rate_limit_burst"`
	BreakerThreshold   uint              `json:"breaker_threshold"`
	BreakerHalfOpen    duration          `json:"breaker_half_open_timeout"`
	BreakerResetAfter  duration          `json:"breaker_reset_failures_timeout"`
	LookupCacheSize    uint              `json:"lookup_cache_size"`
	LookupCacheTTL     duration          `json:"lookup_cache_ttl"`
	SpecificParameters map[string]string `json:"specific_parameters"`
}

func (c configProvider) GetName() string {
	return c.Name
}

func (c configProvider) GetRole() string {
	if c.Role != "" {
		return c.Role
	}

	return ProviderRolePrimary
}

func (c configProvider) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeout.Duration != 0 {
		return c.HTTPTimeout.Duration
	}

	if c.GetRole() == ProviderRoleFallback {
		return DefaultFallbackHTTPTimeout
	}

	return DefaultHTTPTimeout
}

func (c configProvider) GetRateLimitInterval() time.Duration {
	if c.RateLimitInterval.Duration == 0 {
		return DefaultRateLimitInterval
	}

	return c.RateLimitInterval.Duration
}

func (c configProvider) GetRateLimitBurst() int {
	if c.RateLimitBurst == 0 {
		return DefaultRateLimitBurst
	}

	return int(c.RateLimitBurst)
}

func (c configProvider) GetBreakerThreshold() uint32 {
	if c.BreakerThreshold == 0 {
		return DefaultCircuitBreakerOpenThreshold
	}

	return uint32(c.BreakerThreshold)
}

func (c configProvider) GetBreakerHalfOpenTimeout() time.Duration {
	if c.BreakerHalfOpen.Duration == 0 {
		return DefaultCircuitBreakerHalfOpenTimeout
	}

	return c.BreakerHalfOpen.Duration
}

func (c configProvider) GetBreakerResetFailuresTimeout() time.Duration {
	if c.BreakerResetAfter.Duration == 0 {
		return DefaultCircuitBreakerResetFailuresTimeout
	}

	return c.BreakerResetAfter.Duration
}

func (c configProvider) GetSpecificParameters() map[string]string {
	if c.SpecificParameters == nil {
		return map[string]string{}
	}

	return c.SpecificParameters
}

func parseConfig(path string) (*config, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	conf := config{}
	rawMap := map[string]interface{}{}

	if err := hjson.Unmarshal(content, &rawMap); err != nil {
		return nil, fmt.Errorf("cannot parse json: %w", err)
	}

	rawBytes, _ := json.Marshal(rawMap)

	if err := json.Unmarshal(rawBytes, &conf); err != nil {
		return nil, fmt.Errorf("cannot map config values: %w", err)
	}

	if _, _, err := net.SplitHostPort(conf.Listen); err != nil {
		return nil, fmt.Errorf("incorrect host:port for listen: %w", err)
	}

	seenProviderNames := map[string]struct{}{}
	primaries := 0
	fallbacks := 0

	for _, v := range conf.Providers {
		if _, ok := seenProviderNames[v.GetName()]; ok {
			return nil, fmt.Errorf("name %s is duplicated", v.GetName())
		}

		seenProviderNames[v.GetName()] = struct{}{}

		switch v.GetRole() {
		case ProviderRolePrimary:
			primaries++
		case ProviderRoleFallback:
			fallbacks++
		default:
			return nil, fmt.Errorf("unknown role %s for provider %s", v.GetRole(), v.GetName())
		}
	}

	if primaries == 0 {
		return nil, fmt.Errorf("at least one primary provider is required")
	}

	if fallbacks > 1 {
		return nil, fmt.Errorf("at most one fallback provider is allowed")
	}

	return &conf, nil
}
