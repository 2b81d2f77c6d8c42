package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"podbrief/internal/queue"
	"podbrief/internal/testsupport"
)

func TestDaemonStartAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	waitFor(t, 2*time.Second, func() bool {
		return env.daemon.Status(ctx).Running
	})

	testsupport.NewEpisode(t, env.store, "Test Feed", "guid-alpha", "Alpha Episode")
	beta := testsupport.NewEpisode(t, env.store, "Test Feed", "guid-beta", "Beta Episode")
	beta.Status = queue.StatusFailed
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Queue Status")
	// The running workflow may have advanced the pending item already.
	if !strings.Contains(out, "Pending") && !strings.Contains(out, "Resolving") && !strings.Contains(out, "Resolved") {
		t.Fatalf("expected queue status to include Pending/Resolving/Resolved, got:\n%s", out)
	}
	requireContains(t, out, "Failed")
}

func TestDaemonStatusStopped(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewEpisode(t, env.store, "Test Feed", "guid-alpha", "Alpha Episode")

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Queue Status")
	requireContains(t, out, "Pending")
}

func TestStatusStageHealthSection(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")
	waitFor(t, 2*time.Second, func() bool {
		return env.daemon.Status(ctx).Running
	})

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Stage Health")
	requireContains(t, out, "Resolver")
}

func TestCheckNowRequiresRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"check-now"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("expected not running error, got %v", err)
	}

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"check-now"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("check-now: %v", err)
	}
	requireContains(t, out, "feed poll triggered")
}

func TestTestNotifyUnconfigured(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.NewEpisode(t, env.store, "Test Feed", "guid-alpha", "Alpha Episode")

	out, _, err := runCLI(t, []string{"health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "Database path:")
	requireContains(t, out, "episodes table present: yes")
	requireContains(t, out, "Total items: 1")
}
