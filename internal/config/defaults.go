package config

const (
	defaultOutputDir          = "~/.local/share/lacquer/output"
	defaultLogDir             = "~/.local/share/lacquer/logs"
	defaultOMDbBaseURL        = "https://www.omdbapi.com"
	defaultOMDbRatePerSecond  = 0.5
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultBadgeSize          = 96
	defaultBadgeTextSize      = 13
	defaultEdgeMargin         = 24
	defaultStackPadding       = 12
	defaultBackgroundOpacity  = 0.85
	defaultCacheTTLSeconds    = 3600
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultWorkerCount        = 4
	defaultAutoThreshold      = 10
	defaultItemRetryAttempts  = 3
	defaultItemRetryBackoff   = 2
	defaultNtfyRequestTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Jellyfin: Jellyfin{
			UploadPosters: false,
		},
		OMDb: OMDb{
			Enabled:           true,
			BaseURL:           defaultOMDbBaseURL,
			RequestsPerSecond: defaultOMDbRatePerSecond,
		},
		TMDB: TMDB{
			Enabled:  true,
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Badges: Badges{
			Types:             []string{"resolution", "audio", "review", "awards"},
			Size:              defaultBadgeSize,
			TextSize:          defaultBadgeTextSize,
			EdgeMargin:        defaultEdgeMargin,
			StackPadding:      defaultStackPadding,
			BackgroundOpacity: defaultBackgroundOpacity,
			CacheTTLSeconds:   defaultCacheTTLSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			WorkerCount:        defaultWorkerCount,
			AutoThreshold:      defaultAutoThreshold,
			ItemRetryAttempts:  defaultItemRetryAttempts,
			ItemRetryBackoff:   defaultItemRetryBackoff,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
