package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"lacquer/internal/badge"
	"lacquer/internal/mediaserver"
)

// ErrNotAvailable is returned by a provider that has no data for the item.
// The chain advances to the next tier without surfacing an error.
var ErrNotAvailable = errors.New("resolve: data not available")

// ErrExhausted is returned when every tier, including the demo tier, failed.
var ErrExhausted = errors.New("resolve: all tiers exhausted")

// Provider produces normalized badge data for one item.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, item *mediaserver.Item) (badge.Data, error)
}

// guarded wraps a network-backed provider with a circuit breaker and a rate
// limiter so a dead provider trips open instead of burning its timeout on
// every item in a large batch.
type guarded struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[badge.Data]
	limiter *rate.Limiter
}

// Guard wraps provider with a circuit breaker and an optional rate limit.
// A requestsPerSecond of zero or less disables rate limiting.
func Guard(provider Provider, requestsPerSecond float64) Provider {
	settings := gobreaker.Settings{
		Name:    provider.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A clean "no data for this item" answer means the provider is
		// healthy; only transport-level failures should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotAvailable)
		},
	}
	g := &guarded{
		inner:   provider,
		breaker: gobreaker.NewCircuitBreaker[badge.Data](settings),
	}
	if requestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return g
}

func (g *guarded) Name() string { return g.inner.Name() }

func (g *guarded) Fetch(ctx context.Context, item *mediaserver.Item) (badge.Data, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return badge.Data{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	data, err := g.breaker.Execute(func() (badge.Data, error) {
		return g.inner.Fetch(ctx, item)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return badge.Data{}, fmt.Errorf("%w: circuit open for %s", ErrNotAvailable, g.inner.Name())
		}
		return badge.Data{}, err
	}
	return data, nil
}
