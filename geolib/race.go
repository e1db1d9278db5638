package geolib

import (
	"context"
	"net"
)

type raceOutcome struct {
	name   string
	result ProviderResult
	err    error
}

// racePrimaries asks every primary provider concurrently and settles
// on the first *success*, not the first completion: a provider failing
// in 100ms must not mask another one succeeding in a second. Failure
// is returned only after every racer has failed.
//
// Once a winner is found the shared context is cancelled. This is
// advisory: a loser may have already committed to a result, which is
// simply discarded.
func (e *Engine) racePrimaries(ctx context.Context, ip net.IP) (ProviderResult, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so that losers never block on a settled race
	outcomes := make(chan raceOutcome, len(e.primaries))

	for _, provider := range e.primaries {
		go func(provider Provider) {
			result, err := e.lookup(ctx, provider, ip)

			outcomes <- raceOutcome{
				name:   provider.Name(),
				result: result,
				err:    err,
			}
		}(provider)
	}

	for range e.primaries {
		select {
		case <-ctx.Done():
			return ProviderResult{}, "", ctx.Err()
		case outcome := <-outcomes:
			if outcome.err != nil {
				e.logger.LookupError(ip, outcome.name, outcome.err)

				continue
			}

			return outcome.result, outcome.name, nil
		}
	}

	return ProviderResult{}, "", ErrAllProvidersExhausted
}

// askFallback runs the reserved provider once, sequentially. It is
// only invoked after the whole primary race has failed, so its timeout
// budget is independent from the racers'.
func (e *Engine) askFallback(ctx context.Context, ip net.IP) (ProviderResult, string, error) {
	if e.fallback == nil {
		return ProviderResult{}, "", ErrAllProvidersExhausted
	}

	result, err := e.lookup(ctx, e.fallback, ip)
	if err != nil {
		e.logger.LookupError(ip, e.fallback.Name(), err)

		return ProviderResult{}, "", ErrAllProvidersExhausted
	}

	return result, e.fallback.Name(), nil
}

func (e *Engine) lookup(ctx context.Context, provider Provider, ip net.IP) (ProviderResult, error) {
	result, err := provider.Lookup(ctx, ip)

	if stat, ok := e.stats[provider.Name()]; ok {
		stat.Used(err)
	}

	return result, err
}
