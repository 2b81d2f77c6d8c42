package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"podbrief/internal/config"
)

func TestLoadDefaultConfigUsesEnvSecretsAndExpandsPaths(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("GEMINI_API_KEY", "test-gemini")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "podbrief", "state")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "podbrief", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Telegram.BotToken != "test-token" {
		t.Fatalf("expected bot token from env, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "12345" {
		t.Fatalf("expected chat id from env, got %q", cfg.Telegram.ChatID)
	}
	if cfg.Gemini.APIKey != "test-gemini" {
		t.Fatalf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected default model: %q", cfg.Gemini.Model)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].URL != "https://feeds.megaphone.fm/hubermanlab" {
		t.Fatalf("expected default feed, got %+v", cfg.Feeds)
	}
	if len(cfg.YouTube.Languages) != 1 || cfg.YouTube.Languages[0] != "en" {
		t.Fatalf("expected default transcript language en, got %v", cfg.YouTube.Languages)
	}
	if cfg.Workflow.HeartbeatInterval != config.Default().Workflow.HeartbeatInterval {
		t.Fatalf("unexpected heartbeat interval: %d", cfg.Workflow.HeartbeatInterval)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}

	if cfg.QueueDatabasePath() != filepath.Join(wantState, "queue.db") {
		t.Fatalf("unexpected queue db path: %q", cfg.QueueDatabasePath())
	}
	if cfg.SocketPath() != filepath.Join(wantState, "podbrief.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "podbrief.toml")

	type payload struct {
		Feeds []struct {
			Name string `toml:"name"`
			URL  string `toml:"url"`
		} `toml:"feeds"`
		Telegram struct {
			BotToken string `toml:"bot_token"`
			ChatID   string `toml:"chat_id"`
		} `toml:"telegram"`
		Gemini struct {
			APIKey string `toml:"api_key"`
			Model  string `toml:"model"`
		} `toml:"gemini"`
		Workflow struct {
			FeedPollInterval  int `toml:"feed_poll_interval"`
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Feeds = append(custom.Feeds, struct {
		Name string `toml:"name"`
		URL  string `toml:"url"`
	}{Name: "Show", URL: "https://example.com/feed.xml"})
	custom.Telegram.BotToken = "abc123"
	custom.Telegram.ChatID = "-100200300"
	custom.Gemini.APIKey = "gm-key"
	custom.Gemini.Model = "gemini-2.5-pro"
	custom.Workflow.FeedPollInterval = 60
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Name != "Show" {
		t.Fatalf("expected configured feed to replace default, got %+v", cfg.Feeds)
	}
	if cfg.Telegram.BotToken != "abc123" {
		t.Fatalf("expected bot token from file, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("expected model override, got %q", cfg.Gemini.Model)
	}
	if cfg.Workflow.FeedPollInterval != 60 {
		t.Fatalf("expected feed poll interval 60, got %d", cfg.Workflow.FeedPollInterval)
	}
	if cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat timeout 200, got %d", cfg.Workflow.HeartbeatTimeout)
	}
}

func TestEnvFallbackAppliesOnlyWhenFieldEmpty(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "podbrief.toml")

	type payload struct {
		Telegram struct {
			BotToken string `toml:"bot_token"`
			ChatID   string `toml:"chat_id"`
		} `toml:"telegram"`
		Gemini struct {
			APIKey string `toml:"api_key"`
		} `toml:"gemini"`
	}
	custom := payload{}
	custom.Telegram.BotToken = "file-token"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "env-chat")
	t.Setenv("GEMINI_API_KEY", "env-gemini")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Telegram.BotToken != "file-token" {
		t.Errorf("expected file token preserved, got %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.ChatID != "env-chat" {
		t.Errorf("expected chat id from env, got %q", cfg.Telegram.ChatID)
	}
	if cfg.Gemini.APIKey != "env-gemini" {
		t.Errorf("expected Gemini key from env, got %q", cfg.Gemini.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_bot_token_here") {
		t.Fatalf("sample config missing placeholder bot token: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "podbrief") {
		t.Fatalf("expected state dir to contain podbrief, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Feeds = []config.Feed{{Name: "Show", URL: "https://example.com/feed.xml"}}
		cfg.Telegram.BotToken = "token"
		cfg.Telegram.ChatID = "chat"
		cfg.Gemini.APIKey = "key"
		return cfg
	}

	cfg := base()
	cfg.Telegram.BotToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing bot token")
	}

	cfg = base()
	cfg.Gemini.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing Gemini key")
	}

	cfg = base()
	cfg.Feeds = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty feeds")
	}

	cfg = base()
	cfg.Feeds[0].URL = "not-a-url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid feed url")
	}

	cfg = base()
	cfg.Feeds = append(cfg.Feeds, config.Feed{Name: "show", URL: "https://example.com/other.xml"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate feed name")
	}

	cfg = base()
	cfg.Workflow.FeedPollInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive poll interval")
	}

	cfg = base()
	cfg.Workflow.HeartbeatTimeout = cfg.Workflow.HeartbeatInterval
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when timeout <= interval")
	}
}
