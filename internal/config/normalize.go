package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJellyfin()
	c.normalizeProviders()
	c.normalizeBadges()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetDir) != "" {
		if c.Paths.AssetDir, err = expandPath(c.Paths.AssetDir); err != nil {
			return fmt.Errorf("paths.asset_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeJellyfin() {
	c.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(c.Jellyfin.URL), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
}

func (c *Config) normalizeProviders() {
	if c.OMDb.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDb.APIKey = value
		}
	}
	c.OMDb.BaseURL = strings.TrimRight(strings.TrimSpace(c.OMDb.BaseURL), "/")
	if c.OMDb.BaseURL == "" {
		c.OMDb.BaseURL = defaultOMDbBaseURL
	}
	if c.OMDb.RequestsPerSecond <= 0 {
		c.OMDb.RequestsPerSecond = defaultOMDbRatePerSecond
	}

	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeBadges() {
	if len(c.Badges.Types) == 0 {
		c.Badges.Types = Default().Badges.Types
	}
	for i, value := range c.Badges.Types {
		c.Badges.Types[i] = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Badges.Size <= 0 {
		c.Badges.Size = defaultBadgeSize
	}
	if c.Badges.TextSize <= 0 {
		c.Badges.TextSize = defaultBadgeTextSize
	}
	if c.Badges.EdgeMargin < 0 {
		c.Badges.EdgeMargin = defaultEdgeMargin
	}
	if c.Badges.StackPadding <= 0 {
		c.Badges.StackPadding = defaultStackPadding
	}
	if c.Badges.BackgroundOpacity <= 0 || c.Badges.BackgroundOpacity > 1 {
		c.Badges.BackgroundOpacity = defaultBackgroundOpacity
	}
	if c.Badges.CacheTTLSeconds <= 0 {
		c.Badges.CacheTTLSeconds = defaultCacheTTLSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.WorkerCount <= 0 {
		c.Workflow.WorkerCount = defaultWorkerCount
	}
	if c.Workflow.AutoThreshold <= 0 {
		c.Workflow.AutoThreshold = defaultAutoThreshold
	}
	if c.Workflow.ItemRetryAttempts <= 0 {
		c.Workflow.ItemRetryAttempts = defaultItemRetryAttempts
	}
	if c.Workflow.ItemRetryBackoff <= 0 {
		c.Workflow.ItemRetryBackoff = defaultItemRetryBackoff
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
