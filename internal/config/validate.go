package config

import (
	"errors"
	"fmt"
)

var knownBadgeTypes = map[string]struct{}{
	"audio":      {},
	"resolution": {},
	"review":     {},
	"awards":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateBadges(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateJellyfin() error {
	if c.Jellyfin.URL == "" && c.Jellyfin.UploadPosters {
		return errors.New("jellyfin.url is required when jellyfin.upload_posters is enabled")
	}
	if c.Jellyfin.URL != "" && c.Jellyfin.APIKey == "" {
		return errors.New("jellyfin.api_key is required when jellyfin.url is set")
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.OMDb.Enabled && c.OMDb.APIKey == "" {
		return errors.New("omdb.api_key is required when omdb is enabled (set OMDB_API_KEY or disable omdb)")
	}
	if c.TMDB.Enabled && c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required when tmdb is enabled (set TMDB_API_KEY or disable tmdb)")
	}
	return nil
}

func (c *Config) validateBadges() error {
	for _, value := range c.Badges.Types {
		if _, ok := knownBadgeTypes[value]; !ok {
			return fmt.Errorf("badges.types: unknown badge type %q", value)
		}
	}
	if c.Badges.Size < 32 || c.Badges.Size > 512 {
		return fmt.Errorf("badges.size must be between 32 and 512, got %d", c.Badges.Size)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.WorkerCount > 64 {
		return fmt.Errorf("workflow.worker_count must not exceed 64, got %d", c.Workflow.WorkerCount)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
