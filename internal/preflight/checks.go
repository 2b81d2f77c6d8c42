package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"podbrief/internal/config"
	"podbrief/internal/feed"
	"podbrief/internal/services/gemini"
	"podbrief/internal/services/telegram"
)

// CheckGemini verifies that the Gemini API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckGemini(ctx context.Context, cfg config.GeminiConfig) Result {
	const name = "Gemini"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := gemini.NewClientFrom(cfg, gemini.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeServiceError("Gemini API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTelegram verifies the bot token and chat settings by calling getMe.
func CheckTelegram(ctx context.Context, cfg config.TelegramConfig) Result {
	const name = "Telegram"
	if strings.TrimSpace(cfg.BotToken) == "" {
		return Result{Name: name, Detail: "bot token missing"}
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return Result{Name: name, Detail: "chat id missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := telegram.NewClientFrom(cfg, telegram.WithRetryMaxAttempts(1))
	profile, err := client.GetMe(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeServiceError("Telegram API", err)}
	}
	if profile.Username != "" {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Authenticated as @%s", profile.Username)}
	}
	return Result{Name: name, Passed: true, Detail: "Authenticated"}
}

// CheckFeeds probes every configured feed and reports one result each.
func CheckFeeds(ctx context.Context, feeds []config.Feed) []Result {
	if len(feeds) == 0 {
		return []Result{{Name: "Feeds", Detail: "no feeds configured"}}
	}
	fetcher := feed.NewFetcher()
	results := make([]Result, 0, len(feeds))
	for _, feedCfg := range feeds {
		results = append(results, checkFeed(ctx, fetcher, feedCfg))
	}
	return results
}

func checkFeed(ctx context.Context, fetcher *feed.Fetcher, feedCfg config.Feed) Result {
	name := "Feed: " + feedCfg.Name
	if strings.TrimSpace(feedCfg.URL) == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fetched, err := fetcher.Fetch(checkCtx, feedCfg.URL)
	if err != nil {
		return Result{Name: name, Detail: summarizeServiceError("feed", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d entries", len(fetched.Entries))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeServiceError produces a short human-readable summary for check failures.
func summarizeServiceError(label string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", label)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", label)
	}
	return err.Error()
}
