package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeeds() error {
	if len(c.Feeds) == 0 {
		return errors.New("feeds must include at least one entry")
	}
	seen := make(map[string]struct{}, len(c.Feeds))
	for i, feed := range c.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feeds[%d].name must be set", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feeds[%d].url must be set", i)
		}
		parsed, err := url.Parse(feed.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("feeds[%d].url must be an http(s) URL, got %q", i, feed.URL)
		}
		key := strings.ToLower(feed.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("feeds[%d].name %q duplicates an earlier feed", i, feed.Name)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/podbrief/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set TELEGRAM_BOT_TOKEN env var or edit %s (create with 'podbrief config init')", defaultPath)
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required. Set TELEGRAM_CHAT_ID env var or add it to the [telegram] section")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		return errors.New("gemini.api_key is required. Set GEMINI_API_KEY env var or add it to the [gemini] section")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"telegram.request_timeout":      c.Telegram.RequestTimeout,
		"gemini.timeout_seconds":        c.Gemini.TimeoutSeconds,
		"youtube.timeout_seconds":       c.YouTube.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"workflow.feed_poll_interval":   c.Workflow.FeedPollInterval,
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
