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
	c.normalizeFeeds()
	c.normalizeTelegram()
	c.normalizeGemini()
	c.normalizeYouTube()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFeeds() {
	if len(c.Feeds) == 0 {
		c.Feeds = []Feed{{Name: defaultFeedName, URL: defaultFeedURL}}
		return
	}
	for i := range c.Feeds {
		c.Feeds[i].Name = strings.TrimSpace(c.Feeds[i].Name)
		c.Feeds[i].URL = strings.TrimSpace(c.Feeds[i].URL)
	}
}

func (c *Config) normalizeTelegram() {
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = strings.TrimSpace(value)
		}
	}
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)
	if c.Telegram.ChatID == "" {
		if value, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
			c.Telegram.ChatID = strings.TrimSpace(value)
		}
	}
	c.Telegram.BaseURL = strings.TrimSpace(c.Telegram.BaseURL)
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = defaultTelegramBaseURL
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultTelegramTimeout
	}
}

func (c *Config) normalizeGemini() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.Gemini.APIKey = strings.TrimSpace(value)
		}
	}
	c.Gemini.BaseURL = strings.TrimSpace(c.Gemini.BaseURL)
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.BaseURL = strings.TrimSpace(c.YouTube.BaseURL)
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if len(c.YouTube.Languages) == 0 {
		c.YouTube.Languages = []string{"en"}
	} else {
		langs := make([]string, 0, len(c.YouTube.Languages))
		seen := make(map[string]struct{}, len(c.YouTube.Languages))
		for _, lang := range c.YouTube.Languages {
			normalized := strings.ToLower(strings.TrimSpace(lang))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			langs = append(langs, normalized)
		}
		if len(langs) == 0 {
			langs = []string{"en"}
		}
		c.YouTube.Languages = langs
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultYouTubeTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
