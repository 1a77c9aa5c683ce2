package resolve

import (
	"log/slog"
	"time"

	"lacquer/internal/badge"
	"lacquer/internal/config"
	"lacquer/internal/providers/omdb"
	"lacquer/internal/providers/tmdb"
)

// Set holds the configured resolve chain for every badge type.
type Set struct {
	chains map[badge.Type]*Chain
	cache  *Cache
}

// NewSet wires the per-badge resolve chains from configuration. Either
// provider client may be nil when the provider is disabled; the affected
// chains then lean on the remaining tiers.
func NewSet(cfg *config.Config, logger *slog.Logger, omdbClient omdb.Fetcher, tmdbClient tmdb.Fetcher) *Set {
	cache := NewCache(time.Duration(cfg.Badges.CacheTTLSeconds) * time.Second)

	reviewTiers := make([]Provider, 0, 3)
	awardTiers := make([]Provider, 0, 1)
	if omdbClient != nil {
		reviewTiers = append(reviewTiers, Guard(NewOMDbReviewProvider(omdbClient), cfg.OMDb.RequestsPerSecond))
		awardTiers = append(awardTiers, Guard(NewOMDbAwardsProvider(omdbClient), cfg.OMDb.RequestsPerSecond))
	}
	if tmdbClient != nil {
		reviewTiers = append(reviewTiers, Guard(NewTMDBReviewProvider(tmdbClient), 0))
	}
	reviewTiers = append(reviewTiers, NewServerReviewProvider())

	chains := map[badge.Type]*Chain{
		badge.TypeAudio: NewChain(badge.TypeAudio, cache, logger,
			NewDemoProvider(badge.TypeAudio), streamAudioProvider{}),
		badge.TypeResolution: NewChain(badge.TypeResolution, cache, logger,
			NewDemoProvider(badge.TypeResolution), streamResolutionProvider{}),
		badge.TypeReview: NewChain(badge.TypeReview, cache, logger,
			NewDemoProvider(badge.TypeReview), reviewTiers...),
		badge.TypeAwards: NewChain(badge.TypeAwards, cache, logger,
			NewDemoProvider(badge.TypeAwards), awardTiers...),
	}
	return &Set{chains: chains, cache: cache}
}

// Chain returns the resolve chain for the badge type.
func (s *Set) Chain(badgeType badge.Type) (*Chain, bool) {
	chain, ok := s.chains[badgeType]
	return chain, ok
}

// Cache exposes the shared metadata cache, primarily for maintenance.
func (s *Set) Cache() *Cache { return s.cache }
