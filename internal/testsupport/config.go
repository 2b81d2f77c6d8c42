package testsupport

import (
	"path/filepath"
	"testing"

	"podbrief/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Feeds = []config.Feed{{Name: "Test Feed", URL: "https://feeds.example.com/test.xml"}}
	cfgVal.Telegram.BotToken = "test-bot-token"
	cfgVal.Telegram.ChatID = "1000001"
	cfgVal.Gemini.APIKey = "test-gemini-key"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}

	return builder.cfg
}

// WithFeed replaces the configured feeds with a single feed.
func WithFeed(name, url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Feeds = []config.Feed{{Name: name, URL: url}}
	}
}

// WithGeminiBaseURL points the Gemini client at a test server.
func WithGeminiBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = url
	}
}

// WithTelegramBaseURL points the Telegram client at a test server.
func WithTelegramBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.BaseURL = url
	}
}

// WithYouTubeBaseURL points the transcript client at a test server.
func WithYouTubeBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
