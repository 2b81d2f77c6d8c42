package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podbrief/internal/config"
	"podbrief/internal/daemon"
	"podbrief/internal/ipc"
	"podbrief/internal/logging"
	"podbrief/internal/queue"
	"podbrief/internal/stage"
	"podbrief/internal/testsupport"
	"podbrief/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Item) error { return nil }
func (noopStage) Execute(context.Context, *queue.Item) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

const cliEmptyRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Empty</title></channel></rss>`

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	feedURL    string
	cancel     context.CancelFunc
}

// stubAPIHandler satisfies the Gemini and Telegram health probes so status
// checks in tests never leave the process.
func stubAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(r.URL.Path, ":generateContent"):
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`)
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		fmt.Fprint(w, `{"ok":true,"result":{"id":42,"is_bot":true,"username":"podbrief_test_bot"}}`)
	default:
		fmt.Fprint(w, `{}`)
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, cliEmptyRSS)
	}))
	t.Cleanup(feedServer.Close)

	apiServer := httptest.NewServer(http.HandlerFunc(stubAPIHandler))
	t.Cleanup(apiServer.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithFeed("Test Feed", feedServer.URL),
		testsupport.WithGeminiBaseURL(apiServer.URL),
		testsupport.WithTelegramBaseURL(apiServer.URL),
	)

	configPath := filepath.Join(homeDir, ".config", "podbrief", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Resolver: noopStage{}})

	d, err := daemon.New(cfg, store, logger, mgr, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.StateDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		feedURL:    feedServer.URL,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nstate_dir = %q\nlog_dir = %q\n\n", cfg.Paths.StateDir, cfg.Paths.LogDir)
	fmt.Fprintf(&b, "[telegram]\nbot_token = %q\nchat_id = %q\nbase_url = %q\n\n", cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.BaseURL)
	fmt.Fprintf(&b, "[gemini]\napi_key = %q\nbase_url = %q\n\n", cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	for _, feed := range cfg.Feeds {
		fmt.Fprintf(&b, "[[feeds]]\nname = %q\nurl = %q\n\n", feed.Name, feed.URL)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
