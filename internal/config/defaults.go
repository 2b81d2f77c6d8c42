package config

const (
	defaultStateDir              = "~/.local/share/podbrief/state"
	defaultLogDir                = "~/.local/share/podbrief/logs"
	defaultLogRetentionDays      = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFeedName              = "Huberman Lab"
	defaultFeedURL               = "https://feeds.megaphone.fm/hubermanlab"
	defaultGeminiBaseURL         = "https://generativelanguage.googleapis.com"
	defaultGeminiModel           = "gemini-2.0-flash"
	defaultGeminiTimeoutSeconds  = 120
	defaultYouTubeBaseURL        = "https://www.youtube.com"
	defaultYouTubeTimeoutSeconds = 30
	defaultTelegramBaseURL       = "https://api.telegram.org"
	defaultTelegramTimeout       = 30
	defaultNotifyRequestTimeout  = 10
	defaultFeedPollInterval      = 900
	defaultQueuePollInterval     = 5
	defaultErrorRetryInterval    = 10
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
	defaultMaxRetries            = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Telegram: Telegram{
			BaseURL:        defaultTelegramBaseURL,
			RequestTimeout: defaultTelegramTimeout,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeoutSeconds,
		},
		YouTube: YouTube{
			BaseURL:        defaultYouTubeBaseURL,
			Languages:      []string{"en"},
			TimeoutSeconds: defaultYouTubeTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Published:      true,
			Errors:         true,
			Daemon:         true,
		},
		Workflow: Workflow{
			FeedPollInterval:   defaultFeedPollInterval,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			MaxRetries:         defaultMaxRetries,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
