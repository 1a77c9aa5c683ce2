package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lacquer/internal/badge"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
)

// Resolution is the outcome of a successful resolve, tagged with the tier
// that produced it so callers and tests can assert provenance.
type Resolution struct {
	Data     badge.Data
	Source   badge.Source
	Provider string
}

// Chain resolves one badge type through an ordered list of tiers: live
// providers in priority order, then previously cached data, then the static
// demo tier. The fallback algorithm lives here once; badge types differ only
// in the providers they plug in.
type Chain struct {
	badgeType badge.Type
	providers []Provider
	demo      Provider
	cache     *Cache
	logger    *slog.Logger
}

// NewChain builds a resolve chain for one badge type. The demo provider may
// be nil, in which case the chain can genuinely exhaust.
func NewChain(badgeType badge.Type, cache *Cache, logger *slog.Logger, demo Provider, providers ...Provider) *Chain {
	return &Chain{
		badgeType: badgeType,
		providers: providers,
		demo:      demo,
		cache:     cache,
		logger:    logging.NewComponentLogger(logger, "resolve"),
	}
}

// Type returns the badge type this chain resolves.
func (c *Chain) Type() badge.Type { return c.badgeType }

// Resolve walks the tiers in order and returns the first usable data.
// Provider failure and "no data" both advance the tier; when every live
// provider has been tried, a still-fresh cached value from an earlier run
// serves as the next tier before demo. Only when every tier including demo
// is exhausted does Resolve fail, wrapping ErrExhausted.
func (c *Chain) Resolve(ctx context.Context, item *mediaserver.Item) (Resolution, error) {
	if item == nil {
		return Resolution{}, errors.New("resolve: item must not be nil")
	}

	for _, provider := range c.providers {
		data, err := provider.Fetch(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				return Resolution{}, ctx.Err()
			}
			c.logger.Debug("provider tier advanced",
				logging.String(logging.FieldBadge, string(c.badgeType)),
				logging.String("provider", provider.Name()),
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err),
			)
			continue
		}
		if c.cache != nil {
			c.cache.Put(item.ID, c.badgeType, data)
		}
		return Resolution{Data: data, Source: badge.SourcePrimary, Provider: provider.Name()}, nil
	}

	if c.cache != nil {
		if data, ok := c.cache.Get(item.ID, c.badgeType); ok {
			return Resolution{Data: data, Source: badge.SourceCached, Provider: "cache"}, nil
		}
	}

	if c.demo != nil {
		data, err := c.demo.Fetch(ctx, item)
		if err == nil {
			return Resolution{Data: data, Source: badge.SourceFallback, Provider: c.demo.Name()}, nil
		}
		c.logger.Warn("demo tier failed",
			logging.String(logging.FieldBadge, string(c.badgeType)),
			logging.Error(err),
		)
	}

	return Resolution{}, fmt.Errorf("%w: badge %s for item %s", ErrExhausted, c.badgeType, item.ID)
}
