package main

import (
	"log/slog"

	"lacquer/internal/config"
	"lacquer/internal/logging"
	"lacquer/internal/providers/omdb"
	"lacquer/internal/providers/tmdb"
)

// buildOMDbClient returns nil when OMDb is disabled; the resolve chains then
// lean on their remaining tiers.
func buildOMDbClient(cfg *config.Config, logger *slog.Logger) omdb.Fetcher {
	if !cfg.OMDb.Enabled {
		return nil
	}
	client, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL)
	if err != nil {
		logger.Warn("omdb client unavailable", logging.Error(err))
		return nil
	}
	return client
}

func buildTMDBClient(cfg *config.Config, logger *slog.Logger) tmdb.Fetcher {
	if !cfg.TMDB.Enabled {
		return nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		logger.Warn("tmdb client unavailable", logging.Error(err))
		return nil
	}
	return client
}
