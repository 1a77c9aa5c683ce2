package main

import (
	"errors"
	"strings"
	"sync"

	"lacquer/internal/config"
	"lacquer/internal/jobs"
	"lacquer/internal/logging"
	"lacquer/internal/mediaserver"
	"lacquer/internal/pipeline"
	"lacquer/internal/providers/omdb"
	"lacquer/internal/providers/tmdb"
	"lacquer/internal/resolve"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the job store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// newServer builds the media-server client from configuration.
func (c *commandContext) newServer() (*config.Config, *mediaserver.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Jellyfin.URL == "" {
		return nil, nil, errors.New("jellyfin.url must be configured for this command")
	}
	server, err := mediaserver.New(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey)
	if err != nil {
		return nil, nil, err
	}
	return cfg, server, nil
}

// newController wires the full pipeline for one-shot processing. CLI runs
// log at warn level so command output stays readable.
func (c *commandContext) newController() (*pipeline.Controller, error) {
	cfg, server, err := c.newServer()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, err
	}

	var omdbClient omdb.Fetcher
	if cfg.OMDb.Enabled {
		if client, err := omdb.New(cfg.OMDb.APIKey, cfg.OMDb.BaseURL); err == nil {
			omdbClient = client
		}
	}
	var tmdbClient tmdb.Fetcher
	if cfg.TMDB.Enabled {
		if client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language); err == nil {
			tmdbClient = client
		}
	}

	set := resolve.NewSet(cfg, logger, omdbClient, tmdbClient)
	return pipeline.New(cfg, logger, server, set), nil
}
