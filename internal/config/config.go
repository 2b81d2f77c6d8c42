package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Feed describes one podcast feed to watch.
type Feed struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
	// DisablePageFetch skips episode-page scraping for feeds whose pages
	// never embed video metadata; resolution then relies on feed-supplied
	// video IDs alone.
	DisablePageFetch bool `toml:"disable_page_fetch"`
}

// Telegram contains configuration for the Telegram Bot API.
type Telegram struct {
	BotToken           string `toml:"bot_token"`
	ChatID             string `toml:"chat_id"`
	BaseURL            string `toml:"base_url"`
	DisableLinkPreview bool   `toml:"disable_link_preview"`
	RequestTimeout     int    `toml:"request_timeout"`
}

// Gemini contains configuration for the Gemini generative API.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// YouTube contains configuration for transcript retrieval.
type YouTube struct {
	BaseURL        string   `toml:"base_url"`
	Languages      []string `toml:"languages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	Errors         bool   `toml:"errors"`
	Daemon         bool   `toml:"daemon"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	FeedPollInterval   int `toml:"feed_poll_interval"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	MaxRetries         int `toml:"max_retries"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for podbrief.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Feeds: the podcast feeds to watch
//   - Telegram: announcement delivery via the Bot API
//   - Gemini: transcript summarization
//   - YouTube: transcript language preferences and timeouts
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Feeds         []Feed        `toml:"feeds"`
	Telegram      Telegram      `toml:"telegram"`
	Gemini        Gemini        `toml:"gemini"`
	YouTube       YouTube       `toml:"youtube"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podbrief/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/podbrief/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podbrief.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDatabasePath returns the SQLite database location inside the state directory.
func (c *Config) QueueDatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// SocketPath returns the IPC socket location inside the state directory.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "podbrief.sock")
}

// LockPath returns the daemon lock file location inside the state directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "podbriefd.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GeminiConfig contains the Gemini connection settings consumed by the client.
type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetGemini returns the Gemini connection settings.
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         strings.TrimSpace(c.Gemini.APIKey),
		BaseURL:        strings.TrimSpace(c.Gemini.BaseURL),
		Model:          strings.TrimSpace(c.Gemini.Model),
		TimeoutSeconds: c.Gemini.TimeoutSeconds,
	}
}

// YouTubeConfig contains the transcript retrieval settings consumed by the client.
type YouTubeConfig struct {
	BaseURL        string
	Languages      []string
	TimeoutSeconds int
}

// GetYouTube returns the transcript retrieval settings.
func (c *Config) GetYouTube() YouTubeConfig {
	return YouTubeConfig{
		BaseURL:        strings.TrimSpace(c.YouTube.BaseURL),
		Languages:      append([]string(nil), c.YouTube.Languages...),
		TimeoutSeconds: c.YouTube.TimeoutSeconds,
	}
}

// TelegramConfig contains the Telegram connection settings consumed by the client.
type TelegramConfig struct {
	BotToken           string
	ChatID             string
	BaseURL            string
	DisableLinkPreview bool
	TimeoutSeconds     int
}

// GetTelegram returns the Telegram connection settings.
func (c *Config) GetTelegram() TelegramConfig {
	return TelegramConfig{
		BotToken:           strings.TrimSpace(c.Telegram.BotToken),
		ChatID:             strings.TrimSpace(c.Telegram.ChatID),
		BaseURL:            strings.TrimSpace(c.Telegram.BaseURL),
		DisableLinkPreview: c.Telegram.DisableLinkPreview,
		TimeoutSeconds:     c.Telegram.RequestTimeout,
	}
}
